// Package app assembles the weather stack shared by the Skycast binaries.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/location/geocoder"
	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/telemetry"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/openweathermap"
	"github.com/skycast/skycast/internal/weather/store"
)

const meterName = "github.com/skycast/skycast/internal/app"

// App holds the wired weather components.
type App struct {
	Repository *weather.Repository
	Resolver   *location.Resolver
	Analyzer   *weather.Analyzer
	Upstreams  *resilience.Registry

	closeStore func()
}

// Build opens the configured store and wires the remote source, the
// repository and the location resolver around it.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	s, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open weather store: %w", err)
	}
	log.Info().Str("backend", cfg.Store.Backend).Msg("weather store ready")

	registry := resilience.NewRegistry()
	clientCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	clientCfg.Timeout = cfg.HTTPTimeout
	clientCfg.Registry = registry
	clientCfg.Logger = log

	source := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Units:      cfg.Units,
		Lang:       cfg.Lang,
		DailyFeed:  cfg.DailyFeed,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     log,
	})

	cacheMetrics, err := telemetry.NewCacheMetrics(otel.Meter(meterName), openweathermap.ProviderName)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("create cache metrics: %w", err)
	}

	repo := weather.NewRepository(weather.RepositoryConfig{
		Source:  source,
		Store:   s,
		Logger:  log,
		TTL:     cfg.CacheTTL,
		Metrics: cacheMetrics,
	})

	cities, err := location.BuiltinCities()
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("load built-in cities: %w", err)
	}

	resolverCfg := location.ResolverConfig{Cities: cities, Logger: log}
	if cfg.APIKey != "" {
		resolverCfg.Geocoder = geocoder.NewClient(geocoder.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.GeoURL,
			Timeout: cfg.HTTPTimeout,
			Logger:  log,
		})
	}

	return &App{
		Repository: repo,
		Resolver:   location.NewResolver(resolverCfg),
		Analyzer:   weather.NewAnalyzer(weather.RecommendationsFor(cfg.Lang)),
		Upstreams:  registry,
		closeStore: closeStore,
	}, nil
}

// Close releases the store connection.
func (a *App) Close() {
	if a.closeStore != nil {
		a.closeStore()
	}
}
