package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Loader   LoaderConfig   `json:"loader"`
	Prefetch PrefetchConfig `json:"prefetch"`
	Viewport ViewportConfig `json:"viewport"`
}

// LoaderConfig holds configuration for the tiered image loader
type LoaderConfig struct {
	ScreenWidth  int     `json:"screen_width"`
	ScreenHeight int     `json:"screen_height"`
	BackingScale float64 `json:"backing_scale"`
}

// PrefetchConfig holds configuration for the navigation prefetch cache
type PrefetchConfig struct {
	Capacity     int `json:"capacity"`
	WarmCount    int `json:"warm_count"`
	TargetMaxDim int `json:"target_max_dim"`
}

// ViewportConfig holds configuration for zoom and pan behavior
type ViewportConfig struct {
	MaxScale float64 `json:"max_scale"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			ScreenWidth:  1920,
			ScreenHeight: 1080,
			BackingScale: 2.0,
		},
		Prefetch: PrefetchConfig{
			Capacity:     5,
			WarmCount:    2,
			TargetMaxDim: 0,
		},
		Viewport: ViewportConfig{
			MaxScale: 16.0,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Loader.ScreenWidth < 1 {
		return fmt.Errorf("loader.screen_width must be positive")
	}

	if c.Loader.ScreenHeight < 1 {
		return fmt.Errorf("loader.screen_height must be positive")
	}

	if c.Loader.BackingScale < 1 {
		return fmt.Errorf("loader.backing_scale must be at least 1")
	}

	if c.Prefetch.Capacity < 1 {
		return fmt.Errorf("prefetch.capacity must be positive")
	}

	if c.Prefetch.WarmCount < 0 {
		return fmt.Errorf("prefetch.warm_count cannot be negative")
	}

	if c.Prefetch.WarmCount >= c.Prefetch.Capacity {
		return fmt.Errorf("prefetch.warm_count must be smaller than prefetch.capacity")
	}

	if c.Prefetch.TargetMaxDim < 0 {
		return fmt.Errorf("prefetch.target_max_dim cannot be negative")
	}

	if c.Viewport.MaxScale <= 1 {
		return fmt.Errorf("viewport.max_scale must be greater than 1")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "photo-pipeline", "config.json")
}
