// Package main provides the skycast command-line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/app"
	"github.com/skycast/skycast/internal/cli"
	"github.com/skycast/skycast/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	// Only warnings reach the terminal unless LOG_LEVEL asks for more.
	level := zerolog.WarnLevel
	if os.Getenv("LOG_LEVEL") != "" {
		level = cfg.LogLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	weatherApp, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		return 1
	}
	defer weatherApp.Close()

	cmd, err := cli.New(cli.Dependencies{
		Weather:   weatherApp.Repository,
		Locations: weatherApp.Resolver,
		Analyzer:  weatherApp.Analyzer,
		Logger:    log,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build commands")
		return 1
	}

	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
