package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatasetRowNumber(t *testing.T) {
	ds := &Dataset{Rows: make([]GenericRecord, 2), RowNumbers: []int{1, 4}}
	assert.Equal(t, 4, ds.RowNumber(1))

	// without recorded positions the row is its index plus one
	plain := &Dataset{Rows: make([]GenericRecord, 2)}
	assert.Equal(t, 2, plain.RowNumber(1))
}
