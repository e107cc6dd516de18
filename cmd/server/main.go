// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/inkwell/internal/auth"
	"github.com/jason-s-yu/inkwell/internal/cache"
	"github.com/jason-s-yu/inkwell/internal/cards"
	"github.com/jason-s-yu/inkwell/internal/config"
	"github.com/jason-s-yu/inkwell/internal/database"
	"github.com/jason-s-yu/inkwell/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// actionQueueBuffer bounds how many actions may wait for Redis before new ones are dropped.
const actionQueueBuffer = 4096

func main() {
	logger := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("Unknown LOG_LEVEL %q, using %s", cfg.LogLevel, logger.GetLevel())
	}
	// engine code logs through the package-level logger
	logrus.SetLevel(logger.GetLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr != "" {
		cache.QueueName = cfg.HistorianQueueName
		if err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer cache.Close()
		if err := cache.StartPublisher(actionQueueBuffer); err != nil {
			logger.Fatalf("action publisher: %v", err)
		}
		logger.Infof("Publishing game actions to %s/%s", cfg.RedisAddr, cache.QueueName)
	} else {
		logger.Warn("REDIS_ADDR not set: action log and descriptor cache disabled")
	}

	if url := cfg.PostgresURL(); url != "" {
		if err := database.ConnectDB(ctx, url); err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			logger.Fatalf("database schema: %v", err)
		}
	} else {
		logger.Warn("No database configured: accounts and game records disabled")
	}

	expiry, err := cfg.TokenExpiry()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	signer, err := auth.NewSigner(expiry)
	if err != nil {
		logger.Fatalf("session signer: %v", err)
	}

	var fetcher cards.Fetcher
	if !cfg.CardAPIMock {
		fetcher = cards.NewClient(cfg.CardAPIBaseURL, cfg.CardAPITimeout)
	}
	resolver := cards.NewResolver(fetcher, cfg.CardCacheTTL, logger)

	gs := handlers.NewGameServer(resolver, signer, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.Routes(logger, gs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return gs.RunIdleSweeper(gctx, cfg.GameIdleTTL, time.Minute)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("server exited: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
