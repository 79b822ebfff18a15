package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

type Config struct {
	// Conversion
	DefaultType   string `yaml:"default_type"`
	IndexFilename string `yaml:"index_filename"`
	CompatMnuGlob bool   `yaml:"compat_mnu_glob"`

	// Watch Settings
	WatchDebounceMS int `yaml:"watch_debounce_ms"`

	// UI Settings
	ColorTheme string `yaml:"color_theme"`
	Verbose    bool   `yaml:"verbose"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultType:     string(domain.FormatDLU),
		IndexFilename:   domain.DefaultIndexFilename,
		CompatMnuGlob:   false,
		WatchDebounceMS: 500,
		ColorTheme:      "auto",
		Verbose:         false,
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// A missing file is not an error
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for essential values if missing
	if cfg.IndexFilename == "" {
		cfg.IndexFilename = domain.DefaultIndexFilename
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = 500
	}
	if cfg.ColorTheme == "" {
		cfg.ColorTheme = "auto"
	}

	// Validate DefaultType
	if _, err := domain.ParseAssetFormat(cfg.DefaultType); err != nil {
		cfg.DefaultType = string(domain.FormatDLU)
	}

	return cfg, nil
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Format returns the configured default asset type
func (c *Config) Format() domain.AssetFormat {
	f, err := domain.ParseAssetFormat(c.DefaultType)
	if err != nil {
		return domain.FormatDLU
	}
	return f
}
