package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable, e.g. PIVOT_SERVER_PORT
const EnvPrefix = "PIVOT"

// DefaultConfigFile is read when PIVOT_CONFIG is unset and the file exists
const DefaultConfigFile = "pivot.yaml"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Workers  WorkersConfig  `yaml:"workers" envconfig:"WORKERS"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pivot.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"processed_files" validate:"required"`
	UploadDir string `yaml:"upload_dir" envconfig:"UPLOAD_DIR" default:"uploads" validate:"required"`
}

// WorkersConfig controls batch concurrency
type WorkersConfig struct {
	Process    int           `yaml:"process" envconfig:"PROCESS" default:"4" validate:"min=1"`
	JobTimeout time.Duration `yaml:"job_timeout" envconfig:"JOB_TIMEOUT" default:"5m"`
	Format     string        `yaml:"format" envconfig:"FORMAT" default:"xlsx" validate:"oneof=xlsx csv json"`
}

// DatabaseConfig points at the SQLite job history. The env key is FILE since
// envconfig also falls back to the bare tag name, and PATH is always set.
type DatabaseConfig struct {
	Path string `yaml:"path" envconfig:"FILE" default:"pivot.db" validate:"required"`
}

// Load loads configuration from environment variables, then overlays the
// YAML file named by PIVOT_CONFIG (or pivot.yaml when present), then validates.
func Load() (*Config, error) {
	var cfg Config

	// Defaults and environment first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := os.Getenv(EnvPrefix + "_CONFIG")
	if configFile == "" {
		configFile = DefaultConfigFile
		if _, err := os.Stat(configFile); err != nil {
			configFile = ""
		}
	}
	if configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML file on cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
