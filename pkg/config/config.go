// Package config defines graphwalk's settings and their defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration tree.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Traversal TraversalConfig `mapstructure:"traversal"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type StoreConfig struct {
	// Backend is "memory" or "bolt".
	Backend string `mapstructure:"backend"`
	// Path is the bolt database file.
	Path string `mapstructure:"path"`
}

type DatasetConfig struct {
	// Sources are dataset or graph definition locations: local paths or
	// s3://bucket/key URLs.
	Sources []string `mapstructure:"sources"`
	// Region and Endpoint configure the S3 client. Endpoint is only needed
	// for S3-compatible services.
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type TraversalConfig struct {
	// CacheSize is the per-traversal vertex cache. Zero or less disables it.
	CacheSize int `mapstructure:"cache_size"`
	// Optimizer enables filter pushdown.
	Optimizer bool `mapstructure:"optimizer"`
	// Concurrency bounds QueryMany.
	Concurrency int `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is an OTLP HTTP endpoint. Empty falls back to
	// OTEL_EXPORTER_OTLP_ENDPOINT and then to a discarding exporter.
	Endpoint string `mapstructure:"endpoint"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:     DefaultStoreConfig(),
		Dataset:   DatasetConfig{Region: DefaultRegion},
		Traversal: DefaultTraversalConfig(),
		Log:       LogConfig{Level: "info"},
		Metrics:   MetricsConfig{Namespace: "graphwalk"},
	}
}

// Defaults.
const (
	DefaultRegion    = "us-east-1"
	DefaultCacheSize = 1024
)

// DefaultStoreConfig keeps everything in memory.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{Backend: "memory", Path: "graphwalk.db"}
}

// DefaultTraversalConfig enables the optimizer.
func DefaultTraversalConfig() TraversalConfig {
	return TraversalConfig{
		CacheSize:   DefaultCacheSize,
		Optimizer:   true,
		Concurrency: 4,
	}
}

// SetDefaults registers Default() with v so that every key is known to
// AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("dataset.sources", d.Dataset.Sources)
	v.SetDefault("dataset.region", d.Dataset.Region)
	v.SetDefault("dataset.endpoint", d.Dataset.Endpoint)
	v.SetDefault("traversal.cache_size", d.Traversal.CacheSize)
	v.SetDefault("traversal.optimizer", d.Traversal.Optimizer)
	v.SetDefault("traversal.concurrency", d.Traversal.Concurrency)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// Load reads the configuration from v, which should already have its
// config file, env prefix and flags bound.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the bolt backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.Traversal.Concurrency < 1 {
		return fmt.Errorf("%w: traversal.concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}
