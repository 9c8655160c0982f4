package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PIVOT_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "processed_files", cfg.Paths.OutputDir)
	assert.Equal(t, "uploads", cfg.Paths.UploadDir)
	assert.Equal(t, "pivot.db", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Workers.Process)
	assert.Equal(t, 5*time.Minute, cfg.Workers.JobTimeout)
	assert.Equal(t, "xlsx", cfg.Workers.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PIVOT_CONFIG", "")
	t.Setenv("PIVOT_SERVER_PORT", "9090")
	t.Setenv("PIVOT_WORKERS_PROCESS", "8")
	t.Setenv("PIVOT_WORKERS_FORMAT", "csv")
	t.Setenv("PIVOT_DATABASE_FILE", "/var/lib/pivot/jobs.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 8, cfg.Workers.Process)
	assert.Equal(t, "csv", cfg.Workers.Format)
	assert.Equal(t, "/var/lib/pivot/jobs.db", cfg.Database.Path)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pivot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  output_dir: /data/out
workers:
  process: 2
  job_timeout: 30s
logging:
  level: debug
`), 0644))
	t.Setenv("PIVOT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/out", cfg.Paths.OutputDir)
	assert.Equal(t, "uploads", cfg.Paths.UploadDir, "keys missing from the file keep their default")
	assert.Equal(t, 2, cfg.Workers.Process)
	assert.Equal(t, 30*time.Second, cfg.Workers.JobTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("PIVOT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadValidationFailure(t *testing.T) {
	t.Setenv("PIVOT_CONFIG", "")
	t.Setenv("PIVOT_WORKERS_FORMAT", "pdf")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestValidateWorkers(t *testing.T) {
	t.Setenv("PIVOT_CONFIG", "")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Workers.Process = 0
	assert.Error(t, cfg.Validate())
}
