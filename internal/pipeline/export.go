package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stock-pivot/internal/model"
	"stock-pivot/pkg/utils"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

const sheetName = "Pivot"

// ExportManager writes pivot tables for one job into <dir>/<jobID>/
type ExportManager struct {
	JobID   string
	Format  string
	Outputs *utils.OutputManager
	Now     func() time.Time

	mu    sync.Mutex
	taken map[string]bool
}

// NewExportManager creates an export manager; an empty format means xlsx
func NewExportManager(jobID string, spec model.Export, now func() time.Time) *ExportManager {
	format := strings.ToLower(strings.TrimPrefix(spec.Format, "."))
	if format == "" {
		format = FormatXLSX
	}
	if now == nil {
		now = time.Now
	}
	return &ExportManager{
		JobID:   jobID,
		Format:  format,
		Outputs: utils.NewOutputManager(spec.Dir),
		Now:     now,
		taken:   make(map[string]bool),
	}
}

// Export writes the table (and, for JSON, the verdict) and reports where it went
func (em *ExportManager) Export(ctx context.Context, table *model.AggregatedTable, verdict model.MovementVerdict) (model.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ExportResult{}, err
	}

	path, err := em.reservePath(table.Dataset)
	if err != nil {
		return model.ExportResult{}, err
	}

	switch em.Format {
	case FormatXLSX:
		err = writeXLSX(path, table)
	case FormatCSV:
		err = writeCSV(path, table)
	case FormatJSON:
		err = writeJSON(path, em.JobID, table, verdict)
	default:
		err = fmt.Errorf("unknown export format %q", em.Format)
	}
	if err != nil {
		return model.ExportResult{}, fmt.Errorf("export of %s failed: %w", table.Dataset, err)
	}

	return model.ExportResult{
		Type:        em.Format,
		Path:        path,
		RecordCount: len(table.Data) + 1,
		ExportedAt:  em.Now(),
	}, nil
}

// reservePath picks a unique output name; two sources with the same base
// name in the same second get a numeric suffix.
func (em *ExportManager) reservePath(source string) (string, error) {
	em.mu.Lock()
	defer em.mu.Unlock()

	name := em.Outputs.OutputFileName(source, em.Format, em.Now())
	candidate := name
	for n := 2; em.taken[candidate]; n++ {
		ext := filepath.Ext(name)
		candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
	em.taken[candidate] = true

	return em.Outputs.GetOutputFilePath(em.JobID, candidate)
}

// writeXLSX writes the table with numeric cells and a bold header
func writeXLSX(path string, table *model.AggregatedTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := table.Header()
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, headerStyle); err != nil {
		return err
	}

	for r, row := range table.AllRows() {
		values := make([]interface{}, 0, len(header))
		for _, s := range row.Key.Fields() {
			values = append(values, s)
		}
		for _, v := range row.Stores {
			values = append(values, excelNumber(v))
		}
		values = append(values, excelNumber(row.GrandTotal))

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// excelNumber keeps integers exact; spreadsheets store everything else as doubles anyway
func excelNumber(d decimal.Decimal) interface{} {
	if d.IsInteger() && d.Abs().LessThan(decimal.New(1, 15)) {
		return d.IntPart()
	}
	f, _ := d.Float64()
	return f
}

// writeCSV exports the table to CSV format
func writeCSV(path string, table *model.AggregatedTable) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(table.Rows()); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return writer.Error()
}

// writeJSON exports header, rows and verdict together
func writeJSON(path, jobID string, table *model.AggregatedTable, verdict model.MovementVerdict) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"job_id":       jobID,
			"dataset":      table.Dataset,
			"record_count": len(table.Data) + 1,
			"skipped_rows": table.SkippedRows,
		},
		"columns": table.Header(),
		"rows":    table.Rows(),
		"verdict": verdict,
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
