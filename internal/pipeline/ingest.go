package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"stock-pivot/internal/model"
	"stock-pivot/pkg/utils"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
var ErrUnsupportedFormat = errors.New("unsupported file format")

// typedColumns are parsed into numbers; every other column stays text so
// identifiers such as UPCs keep their leading zeros.
var typedColumns = map[string]bool{
	model.ColStore: true,
	model.ColQty:   true,
}

// ------------------- Ingestion -------------------

// ReadDataset opens a local file and parses it by extension
func ReadDataset(ctx context.Context, path, name string) (*model.Dataset, error) {
	if name == "" {
		name = filepath.Base(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	return ReadDatasetFrom(ctx, name, file)
}

// ReadDatasetFrom parses a CSV or XLSX stream; the format comes from name's extension
func ReadDatasetFrom(ctx context.Context, name string, r io.Reader) (*model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return readCSV(ctx, name, r)
	case ".xlsx":
		return readXLSX(ctx, name, r)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
}

// ------------------- CSV Ingestion -------------------
func readCSV(ctx context.Context, name string, r io.Reader) (*model.Dataset, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err == io.EOF {
		return &model.Dataset{Name: name}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header of %s: %w", name, err)
	}

	headerLine, _ := csvReader.FieldPos(0)

	ds := &model.Dataset{Name: name, Columns: cleanHeaders(headers)}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error in %s: %w", name, err)
		}
		if rec, ok := toRecord(ds.Columns, record); ok {
			// Data rows count file lines after the header, blank lines included
			line, _ := csvReader.FieldPos(0)
			ds.Rows = append(ds.Rows, rec)
			ds.RowNumbers = append(ds.RowNumbers, line-headerLine)
		}
	}
	return ds, nil
}

// ------------------- XLSX Ingestion -------------------
func readXLSX(ctx context.Context, name string, r io.Reader) (*model.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &model.Dataset{Name: name}, nil
	}

	// Raw values so number formats never leak into quantities
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], name, err)
	}
	if len(rows) == 0 {
		return &model.Dataset{Name: name}, nil
	}

	ds := &model.Dataset{Name: name, Columns: cleanHeaders(rows[0])}
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rec, ok := toRecord(ds.Columns, row); ok {
			ds.Rows = append(ds.Rows, rec)
			ds.RowNumbers = append(ds.RowNumbers, i+1)
		}
	}
	return ds, nil
}

func cleanHeaders(headers []string) []string {
	cols := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = utils.CleanHeader(h)
	}
	return cols
}

// toRecord maps one raw row onto the header. Rows with no content are dropped.
func toRecord(columns, cells []string) (model.GenericRecord, bool) {
	rec := make(model.GenericRecord, len(columns))
	hasData := false
	for i, col := range columns {
		if col == "" {
			continue
		}
		var raw string
		if i < len(cells) {
			raw = cells[i]
		}
		if strings.TrimSpace(raw) != "" {
			hasData = true
		}
		if typedColumns[col] {
			rec[col] = utils.ParseValue(raw)
		} else if s := strings.TrimSpace(raw); s != "" {
			rec[col] = s
		} else {
			rec[col] = nil
		}
	}
	return rec, hasData
}
