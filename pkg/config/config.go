// Package config persists operator preferences between runs. Values here
// seed flag defaults; flags always win for a single invocation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/jsonutil"
)

// Config holds persisted CLI preferences.
type Config struct {
	// DataDir is the data directory used when -data is not given.
	DataDir string `json:"data_dir"`

	// ExportDir receives findings exports when no path is given.
	ExportDir string `json:"export_dir"`

	// Template is the default export template name.
	Template string `json:"template"`

	// NoColor disables styled output.
	NoColor bool `json:"no_color"`

	// Silent suppresses informational output.
	Silent bool `json:"silent"`

	// Width overrides the detected terminal width when positive.
	Width int `json:"width"`

	// QuickTrendDays is the executive view's trailing trend window.
	QuickTrendDays int `json:"quick_trend_days"`
}

// Default returns the built-in preferences.
func Default() *Config {
	return &Config{
		DataDir:        defaults.DataDir,
		ExportDir:      ".",
		QuickTrendDays: defaults.QuickTrendDays,
	}
}

// DefaultPath returns the per-user preferences location,
// ~/.config/pcidash/config.json on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config dir: %w", err)
	}
	return filepath.Join(dir, defaults.ConfigDirName, defaults.ConfigFileName), nil
}

// Load reads preferences from path, layered over the defaults so a partial
// file keeps built-in values for the fields it omits. A missing file is not
// an error; it returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := jsonutil.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the preferences for values no run could use.
func (c *Config) Validate() error {
	if c.Width < 0 {
		return fmt.Errorf("%w: width %d is negative", ErrInvalidConfig, c.Width)
	}
	if c.QuickTrendDays < 0 {
		return fmt.Errorf("%w: quick_trend_days %d is negative", ErrInvalidConfig, c.QuickTrendDays)
	}
	return nil
}

// Save writes preferences to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	data, err := jsonutil.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
