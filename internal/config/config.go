// Package config handles configuration loading for TickerDesk.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// BackendConfig holds the assistant and sentiment backend endpoints.
// SentimentURL may be empty, in which case sentiment reports are computed
// locally from RSS headlines instead of fetched from a remote service.
type BackendConfig struct {
	ChatURL      string `mapstructure:"chat_url"      yaml:"chat_url"`
	SentimentURL string `mapstructure:"sentiment_url" yaml:"sentiment_url"`
	TimeoutSec   int    `mapstructure:"timeout_sec"   yaml:"timeout_sec"`
}

// Timeout returns the backend request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

// CacheConfig holds the durable sentiment cache settings.
// TTLSeconds of 0 means entries never expire.
type CacheConfig struct {
	Path       string `mapstructure:"path"        yaml:"path"`
	TTLSeconds int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

// TTL returns the cache entry lifetime; zero disables expiry.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// FeedConfig identifies a single RSS news source. URLs may contain a
// "{symbol}" placeholder that is substituted per ticker.
type FeedConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url"  yaml:"url"`
}

// NewsConfig holds the local news/sentiment provider settings.
type NewsConfig struct {
	Feeds       []FeedConfig `mapstructure:"feeds"        yaml:"feeds"`
	MaxArticles int          `mapstructure:"max_articles" yaml:"max_articles"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tickerdesk/config.yaml (home directory)
//  3. /etc/tickerdesk/config.yaml (system)
//
// Environment variables override config file values.
// Format: TICKERDESK_<SECTION>_<KEY>, e.g., TICKERDESK_API_PORT.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tickerdesk"))
	v.AddConfigPath("/etc/tickerdesk")

	v.SetEnvPrefix("TICKERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not existing is fine; defaults + env vars apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults without reading any file or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("TICKERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Backend defaults: the assistant backend the session exchanges with.
	v.SetDefault("backend.chat_url", "http://localhost:3000/api/v1")
	v.SetDefault("backend.sentiment_url", "")
	v.SetDefault("backend.timeout_sec", 120)

	// Cache defaults: 0 TTL keeps entries forever.
	v.SetDefault("cache.path", filepath.Join(homeDir(), ".tickerdesk", "cache.db"))
	v.SetDefault("cache.ttl_seconds", 0)

	// News defaults
	v.SetDefault("news.max_articles", 50)
	v.SetDefault("news.feeds", []map[string]string{
		{
			"name": "Yahoo Finance",
			"url":  "https://feeds.finance.yahoo.com/rss/2.0/headline?s={symbol}&region=US&lang=en-US",
		},
	})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory, or "." if unavailable.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
