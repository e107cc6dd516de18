// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`

	RedisAddr          string `env:"REDIS_ADDR"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	HistorianQueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"inkwell_actions"`

	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PGHost           string `env:"PG_HOST"`
	PGPort           string `env:"PG_PORT" envDefault:"5432"`
	PGDatabase       string `env:"PG_DATABASE"`

	// TokenExpireTime is a Go duration, or "never"/"0" for tokens without expiry.
	TokenExpireTime string `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`

	CardAPIBaseURL string        `env:"CARD_API_BASE_URL" envDefault:"https://api.lorcana-api.com"`
	CardAPITimeout time.Duration `env:"CARD_API_TIMEOUT" envDefault:"10s"`
	CardAPIMock    bool          `env:"CARD_API_MOCK" envDefault:"false"`
	CardCacheTTL   time.Duration `env:"CARD_CACHE_TTL" envDefault:"24h"`
	GameIdleTTL    time.Duration `env:"GAME_IDLE_TTL" envDefault:"2h"`
	HistorianBatch int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlush int           `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
	InactivitySecs int           `env:"GAME_INACTIVITY_TIMEOUT_SEC" envDefault:"600"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// PostgresURL returns DATABASE_URL if set, otherwise one assembled from the PG_* parts.
// It is empty when no database is configured.
func (c Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.PGHost == "" || c.PGDatabase == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.PostgresUser, c.PostgresPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// TokenExpiry returns the session token lifetime. Zero means tokens never expire.
func (c Config) TokenExpiry() (time.Duration, error) {
	switch c.TokenExpireTime {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(c.TokenExpireTime)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
}

// HistorianFlushDelay is HISTORIAN_FLUSH_MS as a duration.
func (c Config) HistorianFlushDelay() time.Duration {
	return time.Duration(c.HistorianFlush) * time.Millisecond
}

// Inactivity is GAME_INACTIVITY_TIMEOUT_SEC as a duration.
func (c Config) Inactivity() time.Duration {
	return time.Duration(c.InactivitySecs) * time.Second
}
