// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the full runtime configuration. Credentials and endpoints come
// from the environment only; nothing here is read from flags or files.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Pool sizing mirrors the backing store's strict connection ceiling:
	// keep it small and recycle idle connections quickly.
	PoolMinConns       int           `env:"DB_POOL_MIN_CONNS" envDefault:"1"`
	PoolMaxConns       int           `env:"DB_POOL_MAX_CONNS" envDefault:"2"`
	PoolAcquireTimeout time.Duration `env:"DB_POOL_ACQUIRE_TIMEOUT" envDefault:"10s"`
	PoolMaxIdleTime    time.Duration `env:"DB_POOL_MAX_IDLE_TIME" envDefault:"10s"`
	CommandTimeout     time.Duration `env:"DB_COMMAND_TIMEOUT" envDefault:"20s"`

	TTSAPIURL  string        `env:"TTS_API_URL" envDefault:"https://api.elevenlabs.io/v1/text-to-speech"`
	TTSAPIKey  string        `env:"TTS_API_KEY"`
	TTSTimeout time.Duration `env:"TTS_TIMEOUT" envDefault:"15s"`

	ArticleCacheTTL      time.Duration `env:"ARTICLE_CACHE_TTL" envDefault:"1m"`
	ArticleCacheCapacity int           `env:"ARTICLE_CACHE_CAPACITY" envDefault:"10000"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.PoolMinConns, validation.Min(1)),
		validation.Field(&c.PoolMaxConns, validation.Min(c.PoolMinConns)),
		validation.Field(&c.ArticleCacheCapacity, validation.Min(1)),
		validation.Field(&c.RateLimitRPS, validation.Min(0.0)),
		validation.Field(&c.RateLimitBurst, validation.Min(1)),
	)
}
