// Package common provides shared utilities for coindeck
package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for coindeck
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds the assistant backend endpoints
type ServerConfig struct {
	BaseURL   string `toml:"base_url"`   // REST API root, e.g. http://localhost:8080/api/v1
	StreamURL string `toml:"stream_url"` // portfolio push channel, e.g. ws://localhost:8080/ws/portfolio
	Timeout   string `toml:"timeout"`    // HTTP request timeout (Go duration string)
}

// StorageConfig holds local storage configuration.
type StorageConfig struct {
	Path string `toml:"path"` // BadgerHold directory for token + snapshot cache
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// GetTimeout parses the configured HTTP timeout, falling back to 30s.
func (c *ServerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// NewDefaultConfig returns a config populated with development defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			BaseURL:   "http://localhost:8080/api/v1",
			StreamURL: "ws://localhost:8080/ws/portfolio",
			Timeout:   "30s",
		},
		Storage: StorageConfig{
			Path: "./data",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COINDECK_ENV"); env != "" {
		config.Environment = env
	}

	if url := os.Getenv("COINDECK_BASE_URL"); url != "" {
		config.Server.BaseURL = url
	}

	if url := os.Getenv("COINDECK_STREAM_URL"); url != "" {
		config.Server.StreamURL = url
	}

	if timeout := os.Getenv("COINDECK_TIMEOUT"); timeout != "" {
		config.Server.Timeout = timeout
	}

	if path := os.Getenv("COINDECK_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if level := os.Getenv("COINDECK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
