// Package main provides the entrypoint for the Skycast cache sweeper.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/store"
	"github.com/skycast/skycast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycast-worker"

	cfg := config.Load()

	log := zerolog.New(os.Stdout).
		Level(cfg.LogLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Skycast worker")

	if cfg.Store.Backend == store.BackendMemory {
		log.Fatal().Msg("the memory backend is per-process; the worker needs a shared store")
	}

	ctx := context.Background()

	s, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open weather store")
	}
	defer closeStore()

	// The worker only deletes records, so the repository has no remote source.
	repo := weather.NewRepository(weather.RepositoryConfig{
		Store:  s,
		Logger: log,
		TTL:    cfg.CacheTTL,
	})

	job := worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Interval:  cfg.SweepInterval,
			Retention: cfg.CacheRetention,
		},
		Target: repo,
		Logger: log,
	})
	sweeper := worker.NewScheduler(job)

	// Worker also exposes a health endpoint for the container platform
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if err := repo.Ping(r.Context()); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"version": Version,
			"sweep":   job.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cache sweeper")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
