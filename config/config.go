package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full simulator configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Pricing PricingConfig `yaml:"pricing"`
	Assets  []AssetConfig `yaml:"assets"`
	Storage StorageConfig `yaml:"storage"`
	API     APIConfig     `yaml:"api"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig controls the trading engine.
type EngineConfig struct {
	InitialBalance   float64 `yaml:"initial_balance"`
	Currency         string  `yaml:"currency"`
	PayoutRate       float64 `yaml:"payout_rate"`
	AllowedDurations []int   `yaml:"allowed_durations"` // seconds; empty = any positive duration
	SweepSeconds     int     `yaml:"sweep_seconds"`
}

// PricingConfig controls the random-walk feed.
type PricingConfig struct {
	TickIntervalMS int     `yaml:"tick_interval_ms"`
	Volatility     float64 `yaml:"volatility"` // max relative step per tick
	Seed           int64   `yaml:"seed"`       // mixed into per-asset seeds
}

// AssetConfig declares one tradeable instrument.
type AssetConfig struct {
	Name   string `yaml:"name"`
	RIC    string `yaml:"ric"`
	Active bool   `yaml:"active"`
}

// StorageConfig controls the trade journal.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// APIConfig controls the optional REST surface.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls the logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config plus a .env file if present. Env vars override
// the matching YAML keys.
func Load(path string) (*Config, error) {
	// Load .env if it exists (silences the error when there is none)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default returns a config with every default applied, for running without a
// config file.
func Default() *Config {
	_ = godotenv.Load()
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// TickInterval returns the feed tick interval as a time.Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Pricing.TickIntervalMS) * time.Millisecond
}

// SweepInterval returns the settlement sweep cadence as a time.Duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Engine.SweepSeconds) * time.Second
}

// Durations returns the allowed option lengths as time.Durations.
func (c *Config) Durations() []time.Duration {
	out := make([]time.Duration, 0, len(c.Engine.AllowedDurations))
	for _, secs := range c.Engine.AllowedDurations {
		out = append(out, time.Duration(secs)*time.Second)
	}
	return out
}

// applyEnvOverrides overrides values from environment variables when present.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults ensures required values have sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Engine.InitialBalance <= 0 {
		cfg.Engine.InitialBalance = 8000
	}
	if cfg.Engine.Currency == "" {
		cfg.Engine.Currency = "USD"
	}
	if cfg.Engine.PayoutRate <= 0 {
		cfg.Engine.PayoutRate = 0.85
	}
	if cfg.Engine.SweepSeconds <= 0 {
		cfg.Engine.SweepSeconds = 1
	}
	if cfg.Pricing.TickIntervalMS <= 0 {
		cfg.Pricing.TickIntervalMS = 1000
	}
	if cfg.Pricing.Volatility <= 0 {
		cfg.Pricing.Volatility = 0.002
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = ":memory:"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
