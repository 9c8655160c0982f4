package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is the suffix format of every output file
const TimestampLayout = "2006-01-02_15-04-05"

// OutputManager lays out pivot outputs as <base>/<jobID>/<file>
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateJobOutputDir creates the directory holding one job's pivots
func (om *OutputManager) CreateJobOutputDir(jobID string) (string, error) {
	jobDir := filepath.Join(om.BaseOutputDir, jobID)

	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job output directory: %w", err)
	}

	return jobDir, nil
}

// GetOutputFilePath returns where a job's output file goes, creating the job dir
func (om *OutputManager) GetOutputFilePath(jobID, fileName string) (string, error) {
	jobDir, err := om.CreateJobOutputDir(jobID)
	if err != nil {
		return "", err
	}

	cleanFileName := filepath.Base(fileName)

	return filepath.Join(jobDir, cleanFileName), nil
}

// ResolveOutputFile returns the path of an existing output file, refusing
// anything that escapes the job directory.
func (om *OutputManager) ResolveOutputFile(jobID, fileName string) (string, error) {
	if jobID == "" || strings.ContainsAny(jobID, `/\`) || jobID == ".." {
		return "", fmt.Errorf("invalid job id %q", jobID)
	}
	clean := filepath.Base(fileName)
	if clean != fileName || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	path := filepath.Join(om.BaseOutputDir, jobID, clean)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// OutputFileName names the pivot of a source file: <base>_extracted_<timestamp>.<ext>
func (om *OutputManager) OutputFileName(sourceName, ext string, at time.Time) string {
	// Everything after the first dot goes: inv.2024.csv names inv_extracted_...
	base, _, _ := strings.Cut(filepath.Base(sourceName), ".")
	if base == "" {
		base = "dataset"
	}
	return fmt.Sprintf("%s_extracted_%s.%s", base, at.Format(TimestampLayout), strings.TrimPrefix(ext, "."))
}

// GetDownloadURL is the API path serving a job's output file
func (om *OutputManager) GetDownloadURL(jobID, fileName string) string {
	cleanFileName := filepath.Base(fileName)
	return fmt.Sprintf("/api/v1/download/%s/%s", jobID, cleanFileName)
}

// GetFileType classifies an output by extension
func (om *OutputManager) GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".xlsx", ".xls":
		return "excel"
	default:
		return "unknown"
	}
}

// ContentType is the MIME type served for a download
func (om *OutputManager) ContentType(fileName string) string {
	switch om.GetFileType(fileName) {
	case "csv":
		return "text/csv"
	case "json":
		return "application/json"
	case "excel":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// EnsureOutputDirExists creates the base output directory
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}
