package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/api"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/store"
)

type stubSource struct {
	calls atomic.Int32
}

func (s *stubSource) Fetch(_ context.Context, lat, lon float64) (*weather.Weather, error) {
	s.calls.Add(1)
	return &weather.Weather{
		Latitude:  lat,
		Longitude: lon,
		Timezone:  "UTC",
		Current: weather.Current{
			Temperature: 31,
			Humidity:    80,
			WindSpeed:   1,
			Conditions:  []weather.Condition{{ID: 500, Main: "Rain", Description: "light rain", Icon: "10d"}},
		},
	}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubSource) {
	t.Helper()

	src := &stubSource{}
	repo := weather.NewRepository(weather.RepositoryConfig{
		Source: src,
		Store:  store.NewMemoryStore(),
		Logger: zerolog.Nop(),
	})

	cities, err := location.BuiltinCities()
	require.NoError(t, err)

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("openweathermap")
	cfg.Registry = registry
	resilience.NewClient(cfg)

	metrics, err := middleware.NewMetrics(nil)
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2026-01-01T00:00:00Z",
		Logger:    zerolog.New(io.Discard),
		Metrics:   metrics,
		Weather:   repo,
		Analyzer:  weather.NewAnalyzer(weather.EnglishRecommendations()),
		Locations: location.NewResolver(location.ResolverConfig{Cities: cities, Logger: zerolog.Nop()}),
		Store:     repo,
		Upstreams: registry,
	})
	return router, src
}

func TestRouter_HealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.NotEmpty(t, status.Subsystems)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "openweathermap", status.Providers[0].Provider)
}

func TestRouter_GetWeather(t *testing.T) {
	router, src := newTestRouter(t)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/weather?lat=35.6762&lon=139.6503", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.WeatherResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "東京", resp.Location.Name)
		require.NotNil(t, resp.Analysis)
		assert.Equal(t, weather.TemperatureHot, resp.Analysis.TemperatureCategory)
		assert.Equal(t, weather.ConditionRainy, resp.Analysis.Condition)
	}

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRouter_RefreshWeather(t *testing.T) {
	router, src := newTestRouter(t)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/weather:refresh?lat=35.6762&lon=139.6503", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRouter_WeatherAnalysis(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/weather/analysis?lat=35.6762&lon=139.6503", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var analysis weather.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, weather.ConditionRainy, analysis.Condition)
}

func TestRouter_ClearCache(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/weather/cache", http.NoBody))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/weather/cache?olderThan=24h", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Locations(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/locations?q=London", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var list models.LocationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "倫敦", list.Items[0].Name)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/locations/popular", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Items, 8)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/v1/weather/cache", http.NoBody))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
