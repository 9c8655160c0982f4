package model

import (
	"strings"
	"time"
)

// GenericRecord is one parsed input row: column name to typed cell value.
// Cells hold string, int64, float64, decimal.Decimal or nil for blanks.
type GenericRecord map[string]interface{}

// Dataset is one parsed tabular file. RowNumbers, when set, holds the
// 1-based source data row (header excluded) of each entry in Rows; readers
// drop blank rows, so it can differ from the position in Rows.
type Dataset struct {
	Name       string          `json:"name"`
	Columns    []string        `json:"columns"`
	Rows       []GenericRecord `json:"rows"`
	RowNumbers []int           `json:"row_numbers,omitempty"`
}

// RowNumber returns the source data row of Rows[i]
func (d *Dataset) RowNumber(i int) int {
	if i >= 0 && i < len(d.RowNumbers) {
		return d.RowNumbers[i]
	}
	return i + 1
}

// HasColumn reports whether the dataset header carries name
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if strings.TrimSpace(c) == name {
			return true
		}
	}
	return false
}

// FileStatus is the per-file outcome of a pivot job
type FileStatus string

const (
	FileSucceeded FileStatus = "succeeded"
	FileSkipped   FileStatus = "skipped"
	FileFailed    FileStatus = "failed"
)

// FileOutcome is what the caller gets back for every file of a job:
// skipped with a reason, failed with an error, or succeeded with a verdict.
type FileOutcome struct {
	File         string           `json:"file"`
	Status       FileStatus       `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	Verdict      *MovementVerdict `json:"verdict,omitempty"`
	OutputPath   string           `json:"output_path,omitempty"`
	DataRows     int              `json:"data_rows"`
	StoreColumns int              `json:"store_columns"`
	SkippedRows  int              `json:"skipped_rows"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "xlsx", "csv", "json"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	ExportedAt  time.Time `json:"exported_at"`
}
