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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./logs", cfg.LogRoot)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 64, cfg.Server.CacheCapacity)
	assert.True(t, cfg.Collector.Partitioned)
	assert.Equal(t, 10*time.Minute, cfg.Collector.WindowRetention)
	assert.Empty(t, cfg.Collector.Feeds)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
log_root: /data/logs
server:
  addr: ":9090"
  cache_capacity: 16
collector:
  partitioned: false
  window_retention: 20m
  feeds:
    - name: odds-main
      url: wss://example.com/odds
      kind: odds
    - name: btc-ref
      url: wss://example.com/btc
      kind: btc
patterns:
  config_path: /etc/updown/patterns.json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/logs", cfg.LogRoot)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 16, cfg.Server.CacheCapacity)
	assert.False(t, cfg.Collector.Partitioned)
	assert.Equal(t, 20*time.Minute, cfg.Collector.WindowRetention)
	assert.Equal(t, "/etc/updown/patterns.json", cfg.Patterns.ConfigPath)

	require.Len(t, cfg.Collector.Feeds, 2)
	assert.Equal(t, "odds-main", cfg.Collector.Feeds[0].Name)
	assert.Equal(t, "btc", cfg.Collector.Feeds[1].Kind)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Collector.Feeds = []FeedConfig{{Name: "f", URL: "wss://x", Kind: "odds"}}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty log root", func(c *Config) { c.LogRoot = "" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero cache capacity", func(c *Config) { c.Server.CacheCapacity = 0 }},
		{"short retention", func(c *Config) { c.Collector.WindowRetention = 30 * time.Second }},
		{"feed without name", func(c *Config) { c.Collector.Feeds[0].Name = "" }},
		{"feed without url", func(c *Config) { c.Collector.Feeds[0].URL = "" }},
		{"feed with unknown kind", func(c *Config) { c.Collector.Feeds[0].Kind = "equities" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
