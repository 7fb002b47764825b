// Package config loads application configuration for the server and the
// live collector from a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	LogRoot   string          `mapstructure:"log_root"`
	Server    ServerConfig    `mapstructure:"server"`
	Collector CollectorConfig `mapstructure:"collector"`
	Patterns  PatternsConfig  `mapstructure:"patterns"`
}

// ServerConfig holds HTTP replay server configuration.
type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	CacheCapacity int    `mapstructure:"cache_capacity"`
}

// CollectorConfig holds live collector configuration.
type CollectorConfig struct {
	Feeds []FeedConfig `mapstructure:"feeds"`
	// Partitioned selects the per-window directory layout for written
	// logs; false appends to flat per-day files (legacy layout).
	Partitioned bool `mapstructure:"partitioned"`
	// WindowRetention is how long a window stays eligible for BTC
	// assignment after its nominal end.
	WindowRetention time.Duration `mapstructure:"window_retention"`
}

// FeedConfig describes one upstream websocket feed.
type FeedConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
	// Kind is "odds" (side/order-book records) or "btc" (reference price).
	Kind string `mapstructure:"kind"`
}

// PatternsConfig holds pattern evaluation configuration.
type PatternsConfig struct {
	// ConfigPath points at an optional JSON override of the embedded
	// pattern defaults.
	ConfigPath string `mapstructure:"config_path"`
}

// Load reads configuration from a file and UPDOWN_-prefixed environment
// variables. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("UPDOWN")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_root", "./logs")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cache_capacity", 64)
	v.SetDefault("collector.partitioned", true)
	v.SetDefault("collector.window_retention", "10m")
	v.SetDefault("patterns.config_path", "")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.LogRoot == "" {
		return fmt.Errorf("log_root is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.CacheCapacity < 1 {
		return fmt.Errorf("server.cache_capacity must be at least 1")
	}
	if c.Collector.WindowRetention < time.Minute {
		return fmt.Errorf("collector.window_retention must be at least 1 minute")
	}
	for i, f := range c.Collector.Feeds {
		if f.Name == "" {
			return fmt.Errorf("collector.feeds[%d].name is required", i)
		}
		if f.URL == "" {
			return fmt.Errorf("collector.feeds[%d].url is required", i)
		}
		if f.Kind != "odds" && f.Kind != "btc" {
			return fmt.Errorf("collector.feeds[%d].kind must be odds or btc", i)
		}
	}
	return nil
}
