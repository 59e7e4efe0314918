package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `json:"backend"`
	Mock    MockConfig    `json:"mock"`
	Watch   WatchConfig   `json:"watch"`
	Logging LoggingConfig `json:"logging"`
}

// BackendConfig selects and configures the backend implementation
type BackendConfig struct {
	Mode           string `json:"mode"`            // "mock" or "http"
	BaseURL        string `json:"base_url"`        // live API root, e.g. "http://localhost:8080/api"
	TimeoutSeconds int    `json:"timeout_seconds"` // per-request transport timeout
}

// MockConfig tunes the simulated backend
type MockConfig struct {
	Store         string `json:"store"`      // "memory" or "sqlite"
	StorePath     string `json:"store_path"` // sqlite file path
	SeedDemoData  bool   `json:"seed_demo_data"`
	MinLatencyMs  int    `json:"min_latency_ms"`
	MaxLatencyMs  int    `json:"max_latency_ms"`
	IngestDelayMs int    `json:"ingest_delay_ms"` // processing -> completed delay
}

// WatchConfig controls folder auto-upload
type WatchConfig struct {
	Folders       []string `json:"folders"`
	MaxFileSizeMB int      `json:"max_file_size_mb"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level string `json:"level"` // "debug", "info", "warn", "error"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Mode:           "mock",
			BaseURL:        "http://localhost:8080/api",
			TimeoutSeconds: 60,
		},
		Mock: MockConfig{
			Store:         "memory",
			StorePath:     "docchat-mock.db",
			SeedDemoData:  true,
			MinLatencyMs:  300,
			MaxLatencyMs:  1500,
			IngestDelayMs: 3000,
		},
		Watch: WatchConfig{
			Folders:       []string{},
			MaxFileSizeMB: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from file and environment. A missing file is
// created with defaults, matching first-run behavior.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.applyDefaults()
	} else {
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// applyDefaults fills fields a partial config file left empty. Numeric
// latency bounds are not touched here: the file is unmarshalled over
// Default(), so omitted fields already carry defaults, and an explicit
// zero means latency is disabled.
func (c *Config) applyDefaults() {
	if c.Backend.Mode == "" {
		c.Backend.Mode = "mock"
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8080/api"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 60
	}
	if c.Mock.Store == "" {
		c.Mock.Store = "memory"
	}
	if c.Mock.StorePath == "" {
		c.Mock.StorePath = "docchat-mock.db"
	}
	if c.Mock.IngestDelayMs == 0 {
		c.Mock.IngestDelayMs = 3000
	}
	if c.Watch.MaxFileSizeMB == 0 {
		c.Watch.MaxFileSizeMB = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnvOverrides applies DOCCHAT_* environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCCHAT_BACKEND"); v != "" {
		c.Backend.Mode = v
	}
	if v := os.Getenv("DOCCHAT_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("DOCCHAT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("DOCCHAT_MOCK_STORE"); v != "" {
		c.Mock.Store = v
	}
	if v := os.Getenv("DOCCHAT_MOCK_STORE_PATH"); v != "" {
		c.Mock.StorePath = v
	}
	if v := os.Getenv("DOCCHAT_WATCH_FOLDERS"); v != "" {
		c.Watch.Folders = strings.Split(v, ",")
	}
	if v := os.Getenv("DOCCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case "mock", "http":
	default:
		return fmt.Errorf("unknown backend mode: %s (must be mock or http)", c.Backend.Mode)
	}

	if c.Backend.Mode == "http" && c.Backend.BaseURL == "" {
		return fmt.Errorf("base_url is required for the http backend")
	}

	switch c.Mock.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown mock store: %s (must be memory or sqlite)", c.Mock.Store)
	}

	if c.Mock.Store == "sqlite" && c.Mock.StorePath == "" {
		return fmt.Errorf("store_path is required for the sqlite mock store")
	}

	if c.Mock.MinLatencyMs < 0 || c.Mock.MaxLatencyMs < c.Mock.MinLatencyMs {
		return fmt.Errorf("invalid mock latency bounds: [%d, %d]", c.Mock.MinLatencyMs, c.Mock.MaxLatencyMs)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}
