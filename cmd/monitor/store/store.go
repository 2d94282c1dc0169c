// Package store provides storage backend initialization for the monitor.
//
// Two backends are supported:
//
//   - memory: in-process map (default); snapshots are lost on restart.
//   - redis: shared store so relays and other monitors can read the latest
//     snapshot of every device.
//
// Initialization is fail-fast: an unreachable backend exits the process
// before the sampling loop starts.
package store

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/HatiCode/pulsewatch/cmd/monitor/config"
	"github.com/HatiCode/pulsewatch/pkg/storage"
)

// New creates the backend selected by cfg.Storage. It never returns nil;
// on failure it calls os.Exit(1).
func New(cfg *config.Config, logger *slog.Logger) storage.Store {
	switch cfg.Storage {
	case "redis":
		logger.Info("initializing redis storage",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"ttl", cfg.RedisTTL,
		)
		redisStore, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			logger.Error("redis health check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("redis storage initialized successfully")

		return redisStore
	case "memory":
		logger.Info("initializing in-memory storage")
		return storage.NewMemoryStore()

	default:
		logger.Error("invalid storage type", "storage", cfg.Storage)
		os.Exit(1)
	}

	return nil
}
