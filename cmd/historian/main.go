// cmd/historian/main.go pops game actions from the Redis queue and persists
// them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/inkwell/internal/cache"
	"github.com/jason-s-yu/inkwell/internal/config"
	"github.com/jason-s-yu/inkwell/internal/database"
	"github.com/jason-s-yu/inkwell/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is required")
	}
	cache.QueueName = cfg.HistorianQueueName
	if err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer cache.Close()

	url := cfg.PostgresURL()
	if url == "" {
		logger.Fatal("DATABASE_URL or PG_HOST/PG_DATABASE is required")
	}
	if err := database.ConnectDB(ctx, url); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		logger.Fatalf("database schema: %v", err)
	}

	svc := historian.New(historian.RedisSource{}, historian.PostgresSink{}, logger, historian.Options{
		BatchSize:  cfg.HistorianBatch,
		FlushDelay: cfg.HistorianFlushDelay(),
		Inactivity: cfg.Inactivity(),
	})
	if err := svc.Run(ctx); err != nil {
		logger.Errorf("historian exited: %v", err)
		os.Exit(1)
	}
}
