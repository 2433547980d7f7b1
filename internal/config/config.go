// Package config loads rgraph settings from defaults, an optional YAML
// file and RGRAPH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RGRAPH_LOGGING_LEVEL.
const EnvPrefix = "RGRAPH"

// Config holds all configuration for rgraph.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Propagation PropagationConfig `mapstructure:"propagation"`
	Store       StoreConfig       `mapstructure:"store"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PropagationConfig holds signal propagation settings.
type PropagationConfig struct {
	// MaxDepth enables the re-entrancy depth guard. Zero disables it.
	MaxDepth int `mapstructure:"max_depth"`
}

// StoreConfig holds event store settings.
type StoreConfig struct {
	// Path is the SQLite file events are recorded to. Empty disables
	// recording.
	Path string `mapstructure:"path"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration. An empty path looks for rgraph.yaml in the
// working directory and falls back to defaults if there is none; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("propagation.max_depth", 0)
	v.SetDefault("store.path", "")
	v.SetDefault("metrics.enabled", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the settings are consistent.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Propagation.MaxDepth < 0 {
		return fmt.Errorf("propagation.max_depth must be >= 0")
	}
	return nil
}

// SlogLevel returns the configured slog level.
func (c LoggingConfig) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// NewLogger builds a logger writing to w in the configured format.
// verbose lowers the level to Debug.
func (c LoggingConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
