package pipeline

import (
	"stock-pivot/internal/model"
)

// Validate checks that a dataset carries every required column.
// It never repairs the dataset; a failing dataset must be skipped whole.
func Validate(ds *model.Dataset) error {
	var missing []string
	for _, col := range model.RequiredColumns {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &model.MissingColumnsError{Dataset: ds.Name, Missing: missing}
	}
	return nil
}
