// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvCatalog = "PLAYBAR_CATALOG"
	EnvDevice  = "PLAYBAR_DEVICE"
	EnvVolume  = "PLAYBAR_VOLUME"
)

// Config represents the application configuration.
type Config struct {
	Player  PlayerConfig            `yaml:"player"`
	Device  DeviceConfig            `yaml:"device"`
	Catalog CatalogConfig           `yaml:"catalog"`
	Filters map[string]FilterConfig `yaml:"filters"`
}

// PlayerConfig represents playback session configuration.
type PlayerConfig struct {
	DefaultVolume   *float64 `yaml:"default_volume" default:"0.7" validate:"omitempty,gte=0,lte=1"`
	EventBuffer     int      `yaml:"event_buffer" default:"64" validate:"gte=1,lte=4096"`
	HistorySize     int      `yaml:"history_size" default:"20" validate:"gte=0,lte=1000"`
	NotifyTimeoutMs int      `yaml:"notify_timeout_ms" default:"500" validate:"gte=1,lte=60000"` // Per-subscriber send timeout
}

// Volume returns the configured initial volume.
func (p PlayerConfig) Volume() float64 {
	if p.DefaultVolume == nil {
		return 0.7
	}
	return *p.DefaultVolume
}

// NotifyTimeout returns how long a notification send may block on one subscriber.
func (p PlayerConfig) NotifyTimeout() time.Duration {
	return time.Duration(p.NotifyTimeoutMs) * time.Millisecond
}

// DeviceConfig represents the transport device configuration.
type DeviceConfig struct {
	Type     string         `yaml:"type" default:"simulated" validate:"required,oneof=simulated"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// CatalogConfig represents the catalog source configuration.
type CatalogConfig struct {
	Path string `yaml:"path"` // Empty means the built-in catalog
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
// Environment overrides still apply.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty or
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	return Load(path)
}

func (c *Config) finish() error {
	// Override with environment variables
	if err := c.overrideFromEnv(); err != nil {
		return err
	}

	// Set defaults using creasty/defaults
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() error {
	if v := os.Getenv(EnvCatalog); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv(EnvDevice); v != "" {
		c.Device.Type = v
	}
	if v := os.Getenv(EnvVolume); v != "" {
		vol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvVolume)
		}
		c.Player.DefaultVolume = &vol
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
