package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "adrelay/internal/adapter/http"
	"adrelay/internal/adapter/postgres"
	redisadapter "adrelay/internal/adapter/redis"
	"adrelay/internal/adapter/usecase"
	"adrelay/internal/config"
	"adrelay/internal/counter"
	"adrelay/internal/db"
	"adrelay/internal/idgen"
	"adrelay/internal/useragent"
)

// main loads configuration, optionally runs migrations and seeding,
// connects the authoritative store and the read cache, wires the serving
// core and starts the HTTP server plus the resync scheduler. On a
// termination signal everything shuts down gracefully.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Psql.SeedDemo {
		if err = db.Seed(ctx, pool); err != nil {
			logger.Error("seed error", slog.Any("error", err))
		}
	}

	redisClient, err := redisadapter.Connect(cfg.Redis.Addr)
	if err != nil {
		logger.Error("redis connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	generator, err := idgen.New(cfg.IDGen.WorkerID)
	if err != nil {
		logger.Error("id generator error", slog.Any("error", err))
		os.Exit(1)
	}

	store := postgres.NewStore(pool)
	cache := redisadapter.NewCache(redisClient)
	counters := counter.New(redisadapter.NewCounterStore(redisClient), cfg.Sync.CapWindow)

	pipeline := usecase.NewPipeline(store, cache, counters, generator, logger)
	syncer := usecase.NewSyncUseCase(store, cache, logger)

	// Warm the cache before accepting traffic; failures degrade to a cold
	// cache, which the serving path tolerates.
	if rep := syncer.ResyncAll(ctx); rep.Err != nil {
		logger.Warn("initial resync degraded", slog.Int("failures", rep.Failures), slog.Any("error", rep.Err))
	}

	if cfg.Sync.Interval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Sync.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if rep := syncer.ResyncAll(ctx); rep.Err != nil {
						logger.Warn("scheduled resync degraded",
							slog.Int("failures", rep.Failures), slog.Any("error", rep.Err))
					}
				}
			}
		}()
	}

	handler := httpadapter.NewHandler(pipeline, syncer, useragent.New(), logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
