// Package config loads the calculator host configuration from defaults, an
// optional YAML file and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-chi-calculator/internal/theme"
)

// Config is the complete host configuration.
type Config struct {
	Addr            string          `yaml:"addr"`
	ServiceName     string          `yaml:"service_name"`
	LogLevel        string          `yaml:"log_level"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	Store           StoreConfig     `yaml:"store"`
	Theme           ThemeConfig     `yaml:"theme"`
	Telemetry       TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig selects the persistent key/value store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	Path   string `yaml:"path"`   // SQLite database file
}

// ThemeConfig holds the theme defaults and the system signal file.
type ThemeConfig struct {
	Default    string `yaml:"default"`     // used when no preference is stored or signalled
	SignalFile string `yaml:"signal_file"` // file containing "dark" or "light", watched for changes
}

// TelemetryConfig toggles the OTLP exporters.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Addr:            ":8080",
		ServiceName:     "calculator",
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		Store: StoreConfig{
			Driver: "memory",
			Path:   "calculator.db",
		},
		Theme: ThemeConfig{
			Default: "light",
		},
	}
}

// Load builds the configuration. The YAML file is read when path is set or
// CALC_CONFIG names one; environment variables then override file values.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = getenv("CALC_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.Addr, "CALC_ADDR")
	set(&cfg.ServiceName, "OTEL_SERVICE_NAME")
	set(&cfg.LogLevel, "CALC_LOG_LEVEL")
	set(&cfg.Store.Driver, "CALC_STORE_DRIVER")
	set(&cfg.Store.Path, "CALC_STORE_PATH")
	set(&cfg.Theme.Default, "CALC_THEME")
	set(&cfg.Theme.SignalFile, "CALC_THEME_FILE")

	if v := getenv("CALC_TELEMETRY"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CALC_TELEMETRY: %w", err)
		}
		cfg.Telemetry.Enabled = enabled
	}

	if v := getenv("CALC_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CALC_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Addr == "" {
		errs = append(errs, "addr: must not be empty")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path: required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if _, err := theme.ParseTheme(c.Theme.Default); err != nil {
		errs = append(errs, fmt.Sprintf("theme.default: %v", err))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout: must be positive")
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
}

// DefaultTheme returns the parsed default theme.
func (c *Config) DefaultTheme() theme.Theme {
	t, _ := theme.ParseTheme(c.Theme.Default)
	return t
}
