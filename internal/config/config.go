// Package config provides configuration handling for the BTC 15m bot.
//
// Values are resolved in layers: struct defaults, then an optional YAML
// file, then environment variable overrides, then validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Binance BinanceConfig `yaml:"binance"`
	Engine  EngineConfig  `yaml:"engine"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// LogConfig controls log verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" default:"console" validate:"oneof=console json"`
}

// ServerConfig controls the health and metrics HTTP listener.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR" default:":8080" validate:"required"`
}

// StorageConfig controls the SQLite store.
type StorageConfig struct {
	Path string `yaml:"path" env:"DB_PATH" default:"data/btc15m.db" validate:"required"`
}

// BinanceConfig controls the candle feed. Keys are optional because
// klines and spot prices are public endpoints.
type BinanceConfig struct {
	APIKey      string `yaml:"api_key" env:"BINANCE_API_KEY"`
	APISecret   string `yaml:"api_secret" env:"BINANCE_API_SECRET"`
	Symbol      string `yaml:"symbol" env:"SYMBOL" default:"BTCUSDT" validate:"required"`
	Interval    string `yaml:"interval" default:"1m" validate:"required"`
	CandleLimit int    `yaml:"candle_limit" default:"120" validate:"gte=30,lte=1000"`
}

// EngineConfig controls the live tick loop and outcome resolver.
type EngineConfig struct {
	TickSec         int     `yaml:"tick_sec" env:"TICK_SEC" default:"30" validate:"gte=5"`
	ResolveSec      int     `yaml:"resolve_sec" default:"60" validate:"gte=10"`
	ResolveGraceSec int     `yaml:"resolve_grace_sec" default:"30" validate:"gte=0"`
	PositionSize    float64 `yaml:"position_size" env:"POSITION_SIZE" default:"10" validate:"gt=0"`
	CommissionPct   float64 `yaml:"commission_pct" default:"0.001" validate:"gte=0,lt=1"`
	SignalLog       string  `yaml:"signal_log" default:"logs/signals.csv"`
}

// NotifyConfig holds the webhook URLs. Empty URLs disable a channel.
type NotifyConfig struct {
	SlackWebhook   string `yaml:"slack_webhook" env:"SLACK_WEBHOOK_URL" validate:"omitempty,url"`
	DiscordWebhook string `yaml:"discord_webhook" env:"DISCORD_WEBHOOK_URL" validate:"omitempty,url"`
}

// TickInterval returns the engine tick cadence.
func (c *EngineConfig) TickInterval() time.Duration {
	return time.Duration(c.TickSec) * time.Second
}

// ResolveInterval returns the outcome resolver cadence.
func (c *EngineConfig) ResolveInterval() time.Duration {
	return time.Duration(c.ResolveSec) * time.Second
}

// ResolveGrace returns how long after market close resolution waits.
func (c *EngineConfig) ResolveGrace() time.Duration {
	return time.Duration(c.ResolveGraceSec) * time.Second
}

// Describe returns a one-line summary for startup notifications.
func (c *Config) Describe() string {
	return fmt.Sprintf("symbol=%s tick=%ds position=$%.0f db=%s",
		c.Binance.Symbol, c.Engine.TickSec, c.Engine.PositionSize, c.Storage.Path)
}

// Load builds the configuration. An empty path skips the file layer so
// the bot can run on defaults and environment variables alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
