package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Session.Capacity)
	assert.Equal(t, 10*time.Minute, cfg.Session.ReturningAfter)
	assert.Equal(t, 2, cfg.Retrieval.Limit)
	assert.Equal(t, 6334, cfg.Retrieval.QdrantPort)
	assert.Equal(t, 2*time.Second, cfg.Generation.FastTimeout)
	assert.Equal(t, 5*time.Second, cfg.Generation.EnrichTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Embedding.CacheTTL)
	assert.Equal(t, 200, cfg.Embedding.CacheMaxEntries)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  http_port: 9000\nsession:\n  capacity: 5\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Session.Capacity)
	// Untouched sections keep defaults.
	assert.Equal(t, 2, cfg.Retrieval.Limit)
}

func TestLoadWithFile_EnvOverride(t *testing.T) {
	t.Setenv("SESSION_CAPACITY", "7")
	t.Setenv("AUTH_TOKEN", "secret")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Session.Capacity)
	assert.Equal(t, "secret", cfg.Auth.Token)
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = -1 }},
		{"zero capacity", func(c *Config) { c.Session.Capacity = 0 }},
		{"search limit below limit", func(c *Config) { c.Retrieval.SearchLimit = 1 }},
		{"negative retries", func(c *Config) { c.Generation.MaxRetries = -1 }},
		{"zero cache", func(c *Config) { c.Embedding.CacheMaxEntries = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
