// internal/database/db.go
package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB is the shared connection pool. It stays nil when no database is configured.
var DB *pgxpool.Pool

//go:embed schema.sql
var schema string

// ConnectDB opens the pool for connStr and pings it.
func ConnectDB(ctx context.Context, connStr string) error {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping error: %w", err)
	}

	DB = pool
	log.Infof("Connected to database at %s:%d/%s", config.ConnConfig.Host, config.ConnConfig.Port, config.ConnConfig.Database)
	return nil
}

// EnsureSchema creates the tables this service writes to, if missing.
func EnsureSchema(ctx context.Context) error {
	if _, err := DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}
