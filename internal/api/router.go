// Package api provides the HTTP API for Skycast.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
)

// Locations is what the router needs from the location resolver.
type Locations interface {
	handler.LocationResolver
	handler.PlaceNamer
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Weather   handler.WeatherService
	Analyzer  handler.Analyzer
	Locations Locations
	Store     handler.Pinger
	Upstreams handler.UpstreamHealthSource
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "skycast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewProblem(models.ProblemTypeNotFound, "Method not allowed",
			http.StatusMethodNotAllowed, middleware.GetRequestID(r.Context())).
			WithDetail(r.Method + " is not supported on " + r.URL.Path)
		response.Error(w, r, problem)
	})

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Store:     cfg.Store,
		Upstreams: cfg.Upstreams,
	})
	weatherHandler := handler.NewWeatherHandler(handler.WeatherHandlerConfig{
		Weather:  cfg.Weather,
		Analyzer: cfg.Analyzer,
		Places:   cfg.Locations,
		Logger:   cfg.Logger,
	})
	locationHandler := handler.NewLocationHandler(cfg.Locations)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Forced refreshes and streams reach the upstream provider.
		r.With(expensiveRateLimit).Post("/weather:refresh", weatherHandler.RefreshWeather)

		r.Route("/weather", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", weatherHandler.GetWeather)
			r.With(standardRateLimit).Get("/analysis", weatherHandler.GetAnalysis)
			r.With(expensiveRateLimit).Get("/stream", weatherHandler.StreamWeather)
			r.With(standardRateLimit).Delete("/cache", weatherHandler.ClearCache)
		})

		r.Route("/locations", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", locationHandler.Search)
			r.Get("/popular", locationHandler.Popular)
		})
	})

	return r
}
