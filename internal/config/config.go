// Package config provides configuration loading and validation for the
// ingestion and scoring core. Configuration is loaded once at startup and
// treated as immutable for the process lifetime; any validation failure is
// fatal by design.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config is the process configuration, loaded from a JSON file. Missing
// numeric values fall back to defaults via ApplyDefaults.
type Config struct {
	// DatabaseURL is the PostgreSQL connection URL for the storage collaborator.
	DatabaseURL string `json:"database_url" validate:"omitempty,uri"`

	// SourcesFile is the path of the per-source registry file.
	SourcesFile string `json:"sources_file" validate:"required"`

	// MaxConcurrentFetches bounds simultaneous in-flight adapters per run.
	MaxConcurrentFetches int `json:"max_concurrent_fetches" validate:"omitempty,min=1,max=64"`

	// AdapterTimeoutSeconds bounds one adapter's whole fetch.
	AdapterTimeoutSeconds int `json:"adapter_timeout_seconds" validate:"omitempty,min=1"`

	// CacheTTLSeconds bounds recommendation staleness even when an
	// invalidation is missed.
	CacheTTLSeconds int `json:"cache_ttl_seconds" validate:"omitempty,min=1"`

	// Logging
	LogJSON bool `json:"log_json"`
	Debug   bool `json:"debug"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultMaxConcurrentFetches = 4
	DefaultAdapterTimeout       = 60
	DefaultCacheTTL             = 900
)

// Load reads and parses the JSON config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero numeric fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrentFetches == 0 {
		c.MaxConcurrentFetches = DefaultMaxConcurrentFetches
	}
	if c.AdapterTimeoutSeconds == 0 {
		c.AdapterTimeoutSeconds = DefaultAdapterTimeout
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = DefaultCacheTTL
	}
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
