package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-console/internal/api"
	"github.com/ignite/campaign-console/internal/campaign"
	"github.com/ignite/campaign-console/internal/config"
	"github.com/ignite/campaign-console/internal/history"
	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/logger"
	"github.com/ignite/campaign-console/internal/recipients"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "error", err.Error())
		os.Exit(1)
	}

	client := mailapi.NewClient(mailapi.Config{
		BaseURL:        cfg.Backend.BaseURL,
		APIToken:       cfg.Backend.APIToken,
		TimeoutSeconds: cfg.Backend.TimeoutSeconds,
	})

	coord := campaign.NewCoordinator(client, cfg.Dispatch.PerSenderCap, cfg.Dispatch.Watchdog())
	defer coord.Close()
	rec := recipients.NewReconciler(client)

	var store *history.Store
	if cfg.History.Enabled {
		db, err := sql.Open("postgres", cfg.History.DatabaseURL)
		if err != nil {
			logger.Error("failed to open history database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			logger.Error("history database unreachable", "error", err.Error())
			os.Exit(1)
		}
		store = history.NewStore(db)
		logger.Info("send history store enabled")
	}

	var cache *history.Cache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, recent-sends cache disabled", "error", err.Error())
		} else {
			cache = history.NewCache(rdb, cfg.Redis.TTL())
			logger.Info("recent-sends cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	srv := api.NewServer(cfg.Server, client, coord, rec, store, cache)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", "error", err.Error())
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err.Error())
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
