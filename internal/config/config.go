// Package config loads the mcpsh configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const DefaultServerURL = "http://localhost:8001/mcp"

type Config struct {
	// ServerURL is the streamable HTTP endpoint of the MCP server.
	ServerURL string `yaml:"server_url"`
	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
	// HistoryFile overrides the default history database location.
	HistoryFile string `yaml:"history_file,omitempty"`
	// LogFile overrides the default log file location.
	LogFile string `yaml:"log_file,omitempty"`
	// HistoryLimit caps how many entries the prompt loads on startup.
	HistoryLimit int `yaml:"history_limit,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ServerURL:    DefaultServerURL,
		LogLevel:     "info",
		HistoryLimit: 500,
	}
}

// DefaultPath returns the conventional config file location,
// ~/.config/mcpsh/config.yaml.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "mcpsh", "config.yaml")
}

// Load reads a config file, filling unset fields with defaults. A missing
// file is not an error; it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 500
	}

	return cfg, nil
}
