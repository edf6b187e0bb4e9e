// Package main provides the entrypoint for the Skycast API server.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/app"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/telemetry"
	"github.com/skycast/skycast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycast-api"

	cfg := config.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		Level(cfg.LogLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting Skycast API")

	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("remote weather calls will fail until configured")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics(nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	weatherApp, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build weather stack")
	}
	defer weatherApp.Close()

	// Expired records are swept in-process; cmd/worker does the same for
	// deployments that run several API replicas on one store.
	sweeper := worker.NewScheduler(worker.NewSweepJob(worker.SweepJobConfig{
		Config: worker.SweepConfig{
			Interval:  cfg.SweepInterval,
			Retention: cfg.CacheRetention,
		},
		Target: weatherApp.Repository,
		Logger: log.With().Str("component", "sweeper").Logger(),
	}))
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cache sweeper")
	}
	defer sweeper.Stop()

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		RequireTLS:  cfg.Env == "production",
		Weather:     weatherApp.Repository,
		Analyzer:    weatherApp.Analyzer,
		Locations:   weatherApp.Resolver,
		Store:       weatherApp.Repository,
		Upstreams:   weatherApp.Upstreams,
	})

	// Create HTTP server. WriteTimeout stays 0 so weather streams are not
	// cut off; open streams end when shutdown cancels the base context.
	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
