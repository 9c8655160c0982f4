package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stock-pivot/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }

func exportTable(t *testing.T) (*model.AggregatedTable, model.MovementVerdict) {
	t.Helper()
	res, err := Process(dataset("Store Inventory.csv",
		rec("Cola", "Can", "000123", "12oz", "101", int64(7)),
		rec("Soda", "Bottle", "000456", "1L", "200X", num("1.5")),
	))
	require.NoError(t, err)
	return res.Table, res.Verdict
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	table, verdict := exportTable(t)

	em := NewExportManager("job-1", model.Export{Dir: dir, Format: "csv"}, fixedNow)
	res, err := em.Export(context.Background(), table, verdict)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "job-1", "Store Inventory_extracted_2024-03-05_14-07-09.csv"), res.Path)
	assert.Equal(t, FormatCSV, res.Type)
	assert.Equal(t, 3, res.RecordCount)

	f, err := os.Open(res.Path)
	require.NoError(t, err)
	defer f.Close()

	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, table.Header(), lines[0])
	assert.Equal(t, []string{"Soda", "Bottle", "000456", "1L", "0", "1.5", "1.5"}, lines[2])
	assert.Equal(t, []string{"Grand Sum", "", "", "", "7", "1.5", "8.5"}, lines[3])
}

func TestExportXLSX(t *testing.T) {
	table, verdict := exportTable(t)

	em := NewExportManager("job-1", model.Export{Dir: t.TempDir()}, fixedNow)
	res, err := em.Export(context.Background(), table, verdict)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, res.Type)
	assert.Equal(t, ".xlsx", filepath.Ext(res.Path))

	f, err := excelize.OpenFile(res.Path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, table.Header(), rows[0])
	assert.Equal(t, "000123", rows[1][2])
	assert.Equal(t, "Grand Sum", rows[3][0])
	assert.Equal(t, "8.5", rows[3][len(rows[3])-1])
}

func TestExportJSON(t *testing.T) {
	table, verdict := exportTable(t)

	em := NewExportManager("job-1", model.Export{Dir: t.TempDir(), Format: ".JSON"}, fixedNow)
	res, err := em.Export(context.Background(), table, verdict)
	require.NoError(t, err)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)

	var out struct {
		Columns []string              `json:"columns"`
		Rows    [][]string            `json:"rows"`
		Verdict model.MovementVerdict `json:"verdict"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, table.Header(), out.Columns)
	assert.Len(t, out.Rows, 3)
	assert.Equal(t, model.MovementDetected, out.Verdict.Status)
}

func TestExportNameCollision(t *testing.T) {
	dir := t.TempDir()
	table, verdict := exportTable(t)
	em := NewExportManager("job-1", model.Export{Dir: dir, Format: "csv"}, fixedNow)

	first, err := em.Export(context.Background(), table, verdict)
	require.NoError(t, err)
	second, err := em.Export(context.Background(), table, verdict)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, "Store Inventory_extracted_2024-03-05_14-07-09_2.csv", filepath.Base(second.Path))
}

func TestExportUnknownFormat(t *testing.T) {
	table, verdict := exportTable(t)
	em := NewExportManager("job-1", model.Export{Dir: t.TempDir(), Format: "parquet"}, fixedNow)

	_, err := em.Export(context.Background(), table, verdict)
	assert.Error(t, err)
}

func TestExportCancelled(t *testing.T) {
	table, verdict := exportTable(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	em := NewExportManager("job-1", model.Export{Dir: t.TempDir()}, fixedNow)
	_, err := em.Export(ctx, table, verdict)
	assert.ErrorIs(t, err, context.Canceled)
}
