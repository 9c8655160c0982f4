package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MissingColumnsError means a dataset lacks required columns and must be skipped
type MissingColumnsError struct {
	Dataset string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

// CellError identifies a cell the engine cannot interpret, e.g. a non-numeric Qty.
// Row is the 1-based data row, header excluded.
type CellError struct {
	Dataset string
	Row     int
	Column  string
	Value   interface{}
	Err     error
}

func (e *CellError) Error() string {
	value := ""
	if e.Value != nil {
		value = fmt.Sprint(e.Value)
	}
	msg := fmt.Sprintf("%s: row %d: invalid %s value %q", e.Dataset, e.Row, e.Column, value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CellError) Unwrap() error { return e.Err }

// InvariantError reports a Grand Total / Grand Sum mismatch. It is always a defect.
type InvariantError struct {
	Dataset string
	Key     string
	Column  string
	Want    decimal.Decimal
	Got     decimal.Decimal
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s [%s]: want %s, got %s", e.Dataset, e.Key, e.Column, e.Want, e.Got)
}
