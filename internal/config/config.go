package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Ingest   IngestConfig   `yaml:"ingest" envconfig:"INGEST"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system and store paths.
// BaseDir is the root every relative path (including stored source
// filepaths served for download) is resolved against.
type PathsConfig struct {
	BaseDir     string   `yaml:"base_dir" envconfig:"BASE_DIR" validate:"required"`
	MetadataDB  string   `yaml:"metadata_db" envconfig:"METADATA_DB" validate:"required"`
	FinancialDB string   `yaml:"financial_db" envconfig:"FINANCIAL_DB" validate:"required"`
	ScanDirs    []string `yaml:"scan_dirs" envconfig:"SCAN_DIRS" validate:"min=1"`
}

// IngestConfig contains ingestion tunables
type IngestConfig struct {
	MaxScanRows int      `yaml:"max_scan_rows" envconfig:"MAX_SCAN_ROWS" validate:"gte=1"`
	Encodings   []string `yaml:"encodings" envconfig:"ENCODINGS" validate:"min=1"`
	Workers     int      `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`
}

// Load loads configuration from an optional YAML file overlaid by
// MUFAP_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := findConfigFile(); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables take precedence over file values.
	if err := envconfig.Process("MUFAP", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// resolvePaths makes every configured path absolute relative to BaseDir.
func (c *Config) resolvePaths() error {
	base, err := filepath.Abs(c.Paths.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base dir: %w", err)
	}
	c.Paths.BaseDir = base

	c.Paths.MetadataDB = c.resolve(c.Paths.MetadataDB)
	c.Paths.FinancialDB = c.resolve(c.Paths.FinancialDB)
	for i, dir := range c.Paths.ScanDirs {
		c.Paths.ScanDirs[i] = c.resolve(dir)
	}
	return nil
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.BaseDir, path)
}

// validate checks the assembled configuration against the struct tags
func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("invalid value for %s (%s)", first.Namespace(), first.Tag())
		}
		return err
	}
	return nil
}

// findConfigFile returns the path to the config file, if any
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Paths: PathsConfig{
			BaseDir:     ".",
			MetadataDB:  "mufap_data.db",
			FinancialDB: "financial_data.db",
			ScanDirs:    []string{"PKFRV", "PKRV"},
		},
		Ingest: IngestConfig{
			MaxScanRows: 15,
			Encodings:   []string{"utf-8", "latin1", "cp1252"},
			Workers:     4,
		},
	}
}
