// Package config loads symdex configuration from .symdex/config.yml
// with environment variable overrides.
package config

import (
	"path/filepath"
)

// Config is the complete symdex configuration.
type Config struct {
	// Database is the snapshot file location.
	Database string `yaml:"database" mapstructure:"database"`

	// Paths are the default root paths scanned when none are given.
	Paths []string `yaml:"paths" mapstructure:"paths"`

	// Excludes are patterns for files and directories to skip.
	Excludes []string `yaml:"excludes" mapstructure:"excludes"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Database: filepath.Join(".symdex", "db"),
		Paths:    []string{"."},
		Excludes: []string{
			".git",
			".symdex",
			"node_modules",
			"vendor",
			"__pycache__",
		},
	}
}
