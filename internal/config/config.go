// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Extraction is the per-run extraction configuration. A snapshot of this
// value is cloned into every worker; it is never mutated mid-run.
type Extraction struct {
	// ContextLines is the number of neighbor rows captured before and
	// after each matching row.
	ContextLines int `yaml:"context_lines"`

	// TargetColumn selects the column to scan. Empty means auto-detect:
	// first header containing the message-content marker, else the
	// first column.
	TargetColumn string `yaml:"target_column"`

	EnablePhone    bool `yaml:"enable_phone"`
	EnableIDCard   bool `yaml:"enable_id_card"`
	EnableBankCard bool `yaml:"enable_bank_card"`
	EnableName     bool `yaml:"enable_name"`

	// APIHost is the host:port of the name-extraction service.
	APIHost string `yaml:"api_host"`
}

// Config is the application configuration loaded from YAML with CLI
// flag overrides applied on top.
type Config struct {
	Extraction Extraction `yaml:"extraction"`

	Processing struct {
		// Workers is the worker pool size; 0 picks a CPU-based default.
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	Output struct {
		Format  string `yaml:"format"`
		Path    string `yaml:"path"`
		NoColor bool   `yaml:"no_color"`
		Verbose bool   `yaml:"verbose"`
		Debug   bool   `yaml:"debug"`
	} `yaml:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Extraction = Extraction{
		ContextLines:   2,
		TargetColumn:   "",
		EnablePhone:    true,
		EnableIDCard:   true,
		EnableBankCard: true,
		EnableName:     false,
		APIHost:        "localhost:8080",
	}
	cfg.Output.Format = "text"
	return cfg
}

// LoadConfig loads configuration from the given file path, applying the
// file's values over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the given config file, falling back to the
// defaults when the file is missing or unreadable.
func LoadConfigOrDefault(path string) *Config {
	if path == "" {
		path = FindConfigFile()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		return Default()
	}
	return cfg
}

// FindConfigFile looks for a config file in standard locations and
// returns the first that exists, or empty.
func FindConfigFile() string {
	candidates := []string{
		"sheetscan.yaml",
		".sheetscan.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".sheetscan.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Validate rejects caller-input errors before any work starts.
func (e *Extraction) Validate() error {
	if e.ContextLines < 0 {
		return errors.New("context_lines must be non-negative")
	}
	if !e.EnablePhone && !e.EnableIDCard && !e.EnableBankCard && !e.EnableName {
		return errors.New("at least one extraction category must be enabled")
	}
	return nil
}

// EnabledCategories lists the enabled category names, for display.
func (e *Extraction) EnabledCategories() []string {
	var out []string
	if e.EnablePhone {
		out = append(out, "phone")
	}
	if e.EnableIDCard {
		out = append(out, "idcard")
	}
	if e.EnableBankCard {
		out = append(out, "bankcard")
	}
	if e.EnableName {
		out = append(out, "name")
	}
	return out
}
