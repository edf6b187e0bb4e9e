package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/weather"
)

// DefaultKeepAlive is the interval between comment lines on idle event streams.
const DefaultKeepAlive = 15 * time.Second

// WeatherService is the weather repository as seen by the HTTP layer.
type WeatherService interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
	RefreshWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
	Stream(ctx context.Context, lat, lon float64) (*weather.Subscription, error)
	ClearCache(ctx context.Context) error
	Sweep(ctx context.Context, olderThan time.Duration) (int64, error)
	TTL() time.Duration
}

// Analyzer derives an analysis from weather.
type Analyzer interface {
	Analyze(w *weather.Weather) weather.Analysis
}

// PlaceNamer names a coordinate.
type PlaceNamer interface {
	ByCoordinates(lat, lon float64) (location.Location, error)
}

// WeatherHandlerConfig holds the dependencies of WeatherHandler.
type WeatherHandlerConfig struct {
	Weather  WeatherService
	Analyzer Analyzer
	Places   PlaceNamer
	Logger   zerolog.Logger

	// KeepAlive is the idle interval on event streams (default: 15 seconds).
	KeepAlive time.Duration
}

// WeatherHandler handles the weather endpoints.
type WeatherHandler struct {
	weather   WeatherService
	analyzer  Analyzer
	places    PlaceNamer
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(cfg WeatherHandlerConfig) *WeatherHandler {
	keepAlive := cfg.KeepAlive
	if keepAlive == 0 {
		keepAlive = DefaultKeepAlive
	}
	return &WeatherHandler{
		weather:   cfg.Weather,
		analyzer:  cfg.Analyzer,
		places:    cfg.Places,
		logger:    cfg.Logger,
		keepAlive: keepAlive,
	}
}

// GetWeather handles GET /v1/weather - cache-first weather with analysis.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := h.coordinates(w, r)
	if !ok {
		return
	}

	data, err := h.weather.GetCurrentWeather(r.Context(), lat, lon)
	if err != nil {
		response.WeatherError(w, r, err)
		return
	}

	h.setCacheHeaders(w, data)
	response.JSON(w, r, http.StatusOK, h.weatherResponse(data))
}

// RefreshWeather handles POST /v1/weather:refresh - unconditional refresh.
func (h *WeatherHandler) RefreshWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := h.coordinates(w, r)
	if !ok {
		return
	}

	data, err := h.weather.RefreshWeather(r.Context(), lat, lon)
	if err != nil {
		response.WeatherError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, h.weatherResponse(data))
}

// GetAnalysis handles GET /v1/weather/analysis - analysis only.
func (h *WeatherHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := h.coordinates(w, r)
	if !ok {
		return
	}

	data, err := h.weather.GetCurrentWeather(r.Context(), lat, lon)
	if err != nil {
		response.WeatherError(w, r, err)
		return
	}

	h.setCacheHeaders(w, data)
	response.JSON(w, r, http.StatusOK, h.analyzer.Analyze(data))
}

// ClearCache handles DELETE /v1/weather/cache. With ?olderThan=<duration>
// only records older than that are removed and the count is returned.
func (h *WeatherHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("olderThan")
	if raw == "" {
		if err := h.weather.ClearCache(r.Context()); err != nil {
			response.WeatherError(w, r, err)
			return
		}
		response.NoContent(w, r)
		return
	}

	olderThan, err := time.ParseDuration(raw)
	if err != nil || olderThan <= 0 {
		response.BadRequest(w, r, "olderThan must be a positive duration such as 24h", []models.FieldError{
			{Field: "olderThan", Message: "must be a positive duration", Code: "INVALID_DURATION"},
		})
		return
	}

	deleted, err := h.weather.Sweep(r.Context(), olderThan)
	if err != nil {
		response.WeatherError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.CacheSweepResponse{
		Deleted:   deleted,
		OlderThan: olderThan.String(),
		Time:      models.Timestamp(time.Now()),
	})
}

// StreamWeather handles GET /v1/weather/stream - Server-Sent Events.
// Each subscription event becomes one SSE event named after its kind.
// The subscription ends when the client disconnects.
func (h *WeatherHandler) StreamWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := h.coordinates(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, r, "streaming is not supported by this connection")
		return
	}

	sub, err := h.weather.Stream(r.Context(), lat, lon)
	if err != nil {
		response.WeatherError(w, r, err)
		return
	}
	defer sub.Close()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		header.Set("X-Request-Id", requestID)
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	log := h.logger.With().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Float64("lat", lat).
		Float64("lon", lon).
		Logger()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if err := h.writeEvent(w, ev); err != nil {
				log.Debug().Err(err).Msg("event stream write failed")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *WeatherHandler) writeEvent(w http.ResponseWriter, ev weather.Event) error {
	var (
		payload any = struct{}{}
		id      string
	)

	switch ev.Kind {
	case weather.EventWeather:
		payload = h.weatherResponse(ev.Weather)
		id = strconv.FormatInt(ev.Weather.LastUpdated.UnixMilli(), 10)
	case weather.EventError:
		payload = models.StreamError{
			Kind:    weather.KindOf(ev.Err).String(),
			Message: weather.DisplayMessage(ev.Err),
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}

func (h *WeatherHandler) weatherResponse(data *weather.Weather) models.WeatherResponse {
	analysis := h.analyzer.Analyze(data)

	place, err := h.places.ByCoordinates(data.Latitude, data.Longitude)
	if err != nil {
		// Stored coordinates were validated on the way in.
		h.logger.Warn().Err(err).Str("key", data.Key()).Msg("naming coordinates failed")
		place = location.Location{Latitude: data.Latitude, Longitude: data.Longitude}
	}

	return models.WeatherResponse{
		Weather:  data,
		Analysis: &analysis,
		Location: place,
	}
}

// setCacheHeaders lets clients reuse a response for the rest of its freshness window.
func (h *WeatherHandler) setCacheHeaders(w http.ResponseWriter, data *weather.Weather) {
	remaining := h.weather.TTL() - time.Since(data.LastUpdated)
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(remaining.Seconds())))
	w.Header().Set("Last-Modified", data.LastUpdated.UTC().Format(http.TimeFormat))
}

func (h *WeatherHandler) coordinates(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	lat, lon, fieldErrors := coordinates(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "lat and lon query parameters are required numbers", fieldErrors)
		return 0, 0, false
	}
	return lat, lon, true
}
