package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory     = "memory"
	BackendRelational = "relational"
	BackendDocument   = "document"
	BackendCollection = "collection"
)

var backends = []string{BackendMemory, BackendRelational, BackendDocument, BackendCollection}

type Config struct {
	// Server configuration
	Port            string        `env:"PORT" envDefault:"8090"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	// Storage configuration
	Backend          string `env:"EVENTS_BACKEND" envDefault:"memory"`
	DatabaseURL      string `env:"DATABASE_URL" envDefault:"file:events.db"`
	RedisURL         string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DocumentDatabase string `env:"DOCUMENT_DATABASE" envDefault:"database"`
	PBDataDir        string `env:"PB_DATA_DIR" envDefault:"pb_data"`

	// PubNub configuration
	PubNubPublishKey   string `env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `env:"PUBNUB_SECRET_KEY"`
	PubNubChannel      string `env:"PUBNUB_EVENTS_CHANNEL" envDefault:"events"`

	// Circuit breaker configuration
	BreakerMaxRequests  uint32        `env:"BREAKER_MAX_REQUESTS" envDefault:"3"`
	BreakerInterval     time.Duration `env:"BREAKER_INTERVAL" envDefault:"60s"`
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.6"`

	// Rate limiting, requests per minute per client on POST /events. 0 disables it.
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0"`

	// Monitoring
	EnableMetrics bool `env:"ENABLE_METRICS" envDefault:"true"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !isBackend(c.Backend) {
		return fmt.Errorf("unknown events backend %q, expected one of %s", c.Backend, strings.Join(backends, ", "))
	}
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", c.RateLimitPerMinute)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("breaker failure ratio must be in (0, 1], got %v", c.BreakerFailureRatio)
	}
	return nil
}

// UsesRedis reports whether a Redis connection is needed.
func (c *Config) UsesRedis() bool {
	return c.Backend == BackendDocument || c.RateLimitPerMinute > 0
}

func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != ""
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func isBackend(name string) bool {
	for _, b := range backends {
		if b == name {
			return true
		}
	}
	return false
}
