package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	assert.Nil(t, ParseValue("  "))
	assert.Equal(t, int64(101), ParseValue(" 101 "))
	assert.Equal(t, int64(-4), ParseValue("-4"))
	assert.Equal(t, "200X", ParseValue("200X"))

	d, ok := ParseValue("101.0").(decimal.Decimal)
	require.True(t, ok)
	assert.Equal(t, "101", d.String())
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, DefaultJobTimeout, ParseDuration(""))
	assert.Equal(t, DefaultJobTimeout, ParseDuration("soon"))
	assert.Equal(t, DefaultJobTimeout, ParseDuration("-1s"))
	assert.Equal(t, 30*time.Second, ParseDuration("30s"))
}

func TestCleanHeader(t *testing.T) {
	assert.Equal(t, "Product", CleanHeader("\ufeff\"Product\" "))
	assert.Equal(t, "Grand Total", CleanHeader(" Grand Total"))
}

func TestOutputFileName(t *testing.T) {
	om := NewOutputManager("out")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "inventory_extracted_2024-01-02_03-04-05.xlsx", om.OutputFileName("inventory.csv", "xlsx", at))
	assert.Equal(t, "inventory_extracted_2024-01-02_03-04-05.csv", om.OutputFileName("dir/inventory.xlsx", ".csv", at))
	assert.Equal(t, "dataset_extracted_2024-01-02_03-04-05.json", om.OutputFileName("", "json", at))
	assert.Equal(t, "inv_extracted_2024-01-02_03-04-05.csv", om.OutputFileName("inv.2024.csv", "csv", at))
	assert.Equal(t, "dataset_extracted_2024-01-02_03-04-05.csv", om.OutputFileName(".hidden.csv", "csv", at))
}

func TestResolveOutputFile(t *testing.T) {
	base := t.TempDir()
	om := NewOutputManager(base)

	path, err := om.GetOutputFilePath("job-1", "../../etc/out.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "job-1", "out.csv"), path)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	got, err := om.ResolveOutputFile("job-1", "out.csv")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	for _, bad := range [][2]string{
		{"job-1", "../job-1/out.csv"},
		{"..", "out.csv"},
		{"job-1/..", "out.csv"},
		{"job-1", "missing.csv"},
		{"", "out.csv"},
	} {
		_, err := om.ResolveOutputFile(bad[0], bad[1])
		assert.Error(t, err, "%s/%s", bad[0], bad[1])
	}
}

func TestContentType(t *testing.T) {
	om := NewOutputManager("out")
	assert.Equal(t, "text/csv", om.ContentType("a.csv"))
	assert.Equal(t, "application/json", om.ContentType("a.JSON"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", om.ContentType("a.xlsx"))
	assert.Equal(t, "application/octet-stream", om.ContentType("a.bin"))
	assert.Equal(t, "/api/v1/download/job-1/a.csv", om.GetDownloadURL("job-1", "out/job-1/a.csv"))
}
