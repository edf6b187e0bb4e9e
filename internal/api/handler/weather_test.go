package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/weather"
)

func newWeatherHandler(t *testing.T, repo *weather.Repository) *handler.WeatherHandler {
	t.Helper()
	return handler.NewWeatherHandler(handler.WeatherHandlerConfig{
		Weather:   repo,
		Analyzer:  weather.NewAnalyzer(weather.EnglishRecommendations()),
		Places:    newTestResolver(t, nil),
		Logger:    zerolog.Nop(),
		KeepAlive: time.Hour,
	})
}

func weatherURL(path string, lat, lon float64) string {
	return fmt.Sprintf("%s?lat=%v&lon=%v", path, lat, lon)
}

func TestWeatherHandler_GetWeather(t *testing.T) {
	src := &fakeSource{}
	h := newWeatherHandler(t, newTestRepository(src, nil))

	req := httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather", taipeiLat, taipeiLon), http.NoBody)
	w := httptest.NewRecorder()

	h.GetWeather(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Cache-Control"), "private, max-age="))
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))

	var resp models.WeatherResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.NotNil(t, resp.Weather)
	assert.Equal(t, taipeiLat, resp.Weather.Latitude)
	assert.Equal(t, taipeiLon, resp.Weather.Longitude)
	assert.Equal(t, 22.0, resp.Weather.Current.Temperature)

	require.NotNil(t, resp.Analysis)
	assert.Equal(t, weather.TemperatureMild, resp.Analysis.TemperatureCategory)
	assert.Equal(t, weather.ConditionClear, resp.Analysis.Condition)

	assert.Equal(t, "台北", resp.Location.Name)
	assert.Equal(t, taipeiLat, resp.Location.Latitude)
}

func TestWeatherHandler_GetWeather_ServesFromCache(t *testing.T) {
	src := &fakeSource{}
	h := newWeatherHandler(t, newTestRepository(src, nil))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.GetWeather(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather", taipeiLat, taipeiLon), http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, src.callCount())
}

func TestWeatherHandler_GetWeather_UnknownPlaceNamedByCoordinates(t *testing.T) {
	h := newWeatherHandler(t, newTestRepository(&fakeSource{}, nil))

	w := httptest.NewRecorder()
	h.GetWeather(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather", 48.1351, 11.582), http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.WeatherResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "48.1351, 11.5820", resp.Location.Name)
}

func TestWeatherHandler_GetWeather_BadParameters(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantFields []string
		wantKind   string
	}{
		{name: "missing both", query: "", wantFields: []string{"lat", "lon"}},
		{name: "missing lon", query: "?lat=25", wantFields: []string{"lon"}},
		{name: "not a number", query: "?lat=north&lon=121", wantFields: []string{"lat"}},
		{name: "latitude out of range", query: "?lat=91&lon=0", wantKind: "location"},
		{name: "longitude out of range", query: "?lat=0&lon=-180.5", wantKind: "location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{}
			h := newWeatherHandler(t, newTestRepository(src, nil))

			w := httptest.NewRecorder()
			h.GetWeather(w, httptest.NewRequest(http.MethodGet, "/v1/weather"+tt.query, http.NoBody))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, models.ProblemTypeValidation, problem.Type)
			assert.Equal(t, tt.wantKind, problem.Kind)

			var fields []string
			for _, fe := range problem.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
			assert.Zero(t, src.callCount())
		})
	}
}

func TestWeatherHandler_GetWeather_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not found", weather.APIErrorFromStatus(http.StatusNotFound), http.StatusNotFound, "api"},
		{"rate limited", weather.APIErrorFromStatus(http.StatusTooManyRequests), http.StatusTooManyRequests, "api"},
		{"bad api key", weather.APIErrorFromStatus(http.StatusUnauthorized), http.StatusServiceUnavailable, "api"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, "network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newWeatherHandler(t, newTestRepository(&fakeSource{err: tt.err}, nil))

			w := httptest.NewRecorder()
			h.GetWeather(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather", taipeiLat, taipeiLon), http.NoBody))

			assert.Equal(t, tt.wantStatus, w.Code)

			var problem models.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantKind, problem.Kind)
			assert.Equal(t, "/v1/weather", problem.Instance)
		})
	}
}

func TestWeatherHandler_RefreshWeather_BypassesCache(t *testing.T) {
	src := &fakeSource{}
	h := newWeatherHandler(t, newTestRepository(src, nil))

	w := httptest.NewRecorder()
	h.GetWeather(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather", taipeiLat, taipeiLon), http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.RefreshWeather(w, httptest.NewRequest(http.MethodPost, weatherURL("/v1/weather:refresh", taipeiLat, taipeiLon), http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, 2, src.callCount())
}

func TestWeatherHandler_GetAnalysis(t *testing.T) {
	h := newWeatherHandler(t, newTestRepository(&fakeSource{}, nil))

	w := httptest.NewRecorder()
	h.GetAnalysis(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather/analysis", taipeiLat, taipeiLon), http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var analysis weather.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, weather.TemperatureMild, analysis.TemperatureCategory)
	assert.Equal(t, weather.ConditionClear, analysis.Condition)
	assert.NotEmpty(t, analysis.Recommendation)
}

func TestWeatherHandler_ClearCache(t *testing.T) {
	src := &fakeSource{}
	h := newWeatherHandler(t, newTestRepository(src, nil))

	get := func() {
		w := httptest.NewRecorder()
		h.GetWeather(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather", taipeiLat, taipeiLon), http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
	}

	get()

	w := httptest.NewRecorder()
	h.ClearCache(w, httptest.NewRequest(http.MethodDelete, "/v1/weather/cache", http.NoBody))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	get()
	assert.Equal(t, 2, src.callCount())
}

func TestWeatherHandler_ClearCache_OlderThan(t *testing.T) {
	clock := newTestClock()
	h := newWeatherHandler(t, newTestRepository(&fakeSource{}, clock))

	w := httptest.NewRecorder()
	h.GetWeather(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather", taipeiLat, taipeiLon), http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	sweep := func(olderThan string) models.CacheSweepResponse {
		w := httptest.NewRecorder()
		h.ClearCache(w, httptest.NewRequest(http.MethodDelete, "/v1/weather/cache?olderThan="+olderThan, http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.CacheSweepResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	resp := sweep("1h")
	assert.Equal(t, int64(0), resp.Deleted)
	assert.Equal(t, "1h0m0s", resp.OlderThan)

	clock.Advance(2 * time.Hour)

	resp = sweep("1h")
	assert.Equal(t, int64(1), resp.Deleted)
}

func TestWeatherHandler_ClearCache_InvalidOlderThan(t *testing.T) {
	for _, raw := range []string{"yesterday", "-1h", "0s"} {
		t.Run(raw, func(t *testing.T) {
			h := newWeatherHandler(t, newTestRepository(&fakeSource{}, nil))

			w := httptest.NewRecorder()
			h.ClearCache(w, httptest.NewRequest(http.MethodDelete, "/v1/weather/cache?olderThan="+raw, http.NoBody))

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var problem models.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, "olderThan", problem.Errors[0].Field)
		})
	}
}

type sseEvent struct {
	id    string
	event string
	data  string
}

// readEvent reads one event, skipping keep-alive comments.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()

	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case line == "":
			if ev.event != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, h *handler.WeatherHandler, lat, lon float64) (*http.Response, *bufio.Reader) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.StreamWeather))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, weatherURL(srv.URL, lat, lon), http.NoBody)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp, bufio.NewReader(resp.Body)
}

func TestWeatherHandler_StreamWeather(t *testing.T) {
	h := newWeatherHandler(t, newTestRepository(&fakeSource{}, nil))

	resp, body := openStream(t, h, taipeiLat, taipeiLon)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	first := readEvent(t, body)
	assert.Equal(t, "loading", first.event)
	assert.Equal(t, "{}", first.data)

	second := readEvent(t, body)
	assert.Equal(t, "weather", second.event)
	assert.NotEmpty(t, second.id)

	var payload models.WeatherResponse
	require.NoError(t, json.Unmarshal([]byte(second.data), &payload))
	require.NotNil(t, payload.Weather)
	assert.Equal(t, taipeiLat, payload.Weather.Latitude)
	assert.Equal(t, "台北", payload.Location.Name)
}

func TestWeatherHandler_StreamWeather_Error(t *testing.T) {
	src := &fakeSource{}
	src.setErr(weather.NewNetworkError("unable to reach weather service", nil))
	h := newWeatherHandler(t, newTestRepository(src, nil))

	_, body := openStream(t, h, taipeiLat, taipeiLon)

	assert.Equal(t, "loading", readEvent(t, body).event)

	ev := readEvent(t, body)
	assert.Equal(t, "error", ev.event)

	var payload models.StreamError
	require.NoError(t, json.Unmarshal([]byte(ev.data), &payload))
	assert.Equal(t, "network", payload.Kind)
	assert.Equal(t, "Network error: unable to reach weather service", payload.Message)
}

func TestWeatherHandler_StreamWeather_InvalidCoordinates(t *testing.T) {
	h := newWeatherHandler(t, newTestRepository(&fakeSource{}, nil))

	w := httptest.NewRecorder()
	h.StreamWeather(w, httptest.NewRequest(http.MethodGet, weatherURL("/v1/weather/stream", 95, 0), http.NoBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
