// Package config handles reading and writing .pvlab/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .pvlab/config.yaml.
type Config struct {
	Version int          `yaml:"version"`
	Server  ServerConfig `yaml:"server"`
	Cache   CacheConfig  `yaml:"cache"`
	Export  ExportConfig `yaml:"export"`
}

// ServerConfig locates the lab backend.
type ServerConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CacheConfig controls staleness windows and polling cadence.
type CacheConfig struct {
	TTLSeconds          int `yaml:"ttl_seconds"`           // default staleness window
	SummaryPollSeconds  int `yaml:"summary_poll_seconds"`  // dashboard summary
	RealtimePollSeconds int `yaml:"realtime_poll_seconds"` // live screen
	ImportPollSeconds   int `yaml:"import_poll_seconds"`   // import job list
	TrendsPollSeconds   int `yaml:"trends_poll_seconds"`   // trend charts
	QualityPollSeconds  int `yaml:"quality_poll_seconds"`  // quality metrics
}

// ExportConfig controls statistics export downloads.
type ExportConfig struct {
	Dir    string `yaml:"dir"`    // download directory; empty means cwd
	Format string `yaml:"format"` // json | csv | excel
}

// configFileName is the path relative to the base directory.
const configDir = ".pvlab"
const configFile = "config.yaml"

// ReadConfig reads .pvlab/config.yaml from the given base directory
// (normally the user's home). Returns an error if the file is not found
// or the YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// WriteConfig writes cfg to .pvlab/config.yaml in the given base
// directory. Creates the .pvlab/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DatabasePath returns the sqlite credential store location under dir.
func DatabasePath(dir string) string {
	return filepath.Join(dir, configDir, "console.db")
}

// DefaultConfig returns a Config populated with sensible defaults.
// Poll cadences mirror the backend's refresh expectations: imports and
// the live screen every 5s, the summary every 30s.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			TTLSeconds:          300,
			SummaryPollSeconds:  30,
			RealtimePollSeconds: 5,
			ImportPollSeconds:   5,
			TrendsPollSeconds:   60,
			QualityPollSeconds:  300,
		},
		Export: ExportConfig{
			Format: "excel",
		},
	}
}
