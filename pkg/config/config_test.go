package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.True(t, cfg.Traversal.Optimizer)
	assert.Equal(t, DefaultCacheSize, cfg.Traversal.CacheSize)
	assert.Equal(t, DefaultRegion, cfg.Dataset.Region)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphwalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: bolt
  path: /tmp/g.db
traversal:
  optimizer: false
  cache_size: 0
dataset:
  sources: [data/social.yaml, s3://bucket/graphs.hcl]
`), 0o600))
	t.Setenv("GRAPHWALK_LOG_LEVEL", "debug")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("graphwalk")
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Store.Backend)
	assert.Equal(t, "/tmp/g.db", cfg.Store.Path)
	assert.False(t, cfg.Traversal.Optimizer)
	assert.Equal(t, 0, cfg.Traversal.CacheSize)
	assert.Equal(t, 4, cfg.Traversal.Concurrency)
	assert.Equal(t, []string{"data/social.yaml", "s3://bucket/graphs.hcl"}, cfg.Dataset.Sources)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "backend", mutate: func(c *Config) { c.Store.Backend = "postgres" }},
		{name: "bolt path", mutate: func(c *Config) { c.Store.Backend, c.Store.Path = "bolt", "" }},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
		{name: "concurrency", mutate: func(c *Config) { c.Traversal.Concurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
