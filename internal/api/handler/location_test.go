package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/location"
)

func searchLocations(t *testing.T, h *handler.LocationHandler, q string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.Search(w, httptest.NewRequest(http.MethodGet, "/v1/locations?q="+url.QueryEscape(q), http.NoBody))
	return w
}

func TestLocationHandler_Search_BuiltinCity(t *testing.T) {
	geo := &fakeGeocoder{err: errors.New("must not be called")}
	h := handler.NewLocationHandler(newTestResolver(t, geo))

	w := searchLocations(t, h, "taipei")
	require.Equal(t, http.StatusOK, w.Code)

	var list models.LocationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, "taipei", list.Query)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "台北", list.Items[0].Name)
	assert.Equal(t, "TW", list.Items[0].Country)
}

func TestLocationHandler_Search_FallsBackToGeocoder(t *testing.T) {
	geo := &fakeGeocoder{results: []location.Location{
		{Name: "Springfield", Latitude: 39.7817, Longitude: -89.6501, Country: "US", State: "Illinois"},
	}}
	h := handler.NewLocationHandler(newTestResolver(t, geo))

	w := searchLocations(t, h, "Springfield")
	require.Equal(t, http.StatusOK, w.Code)

	var list models.LocationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Springfield", list.Items[0].Name)
}

func TestLocationHandler_Search_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		geo        *fakeGeocoder
		wantStatus int
		wantKind   string
	}{
		{"blank query", "   ", &fakeGeocoder{}, http.StatusBadRequest, "location"},
		{"too short", "x", &fakeGeocoder{}, http.StatusBadRequest, "location"},
		{"no match", "Atlantis", &fakeGeocoder{}, http.StatusBadRequest, "location"},
		{"geocoder down", "Atlantis", &fakeGeocoder{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewLocationHandler(newTestResolver(t, tt.geo))

			w := searchLocations(t, h, tt.query)
			assert.Equal(t, tt.wantStatus, w.Code)

			var problem models.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantKind, problem.Kind)
		})
	}
}

func TestLocationHandler_Popular(t *testing.T) {
	h := handler.NewLocationHandler(newTestResolver(t, nil))

	w := httptest.NewRecorder()
	h.Popular(w, httptest.NewRequest(http.MethodGet, "/v1/locations/popular", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))

	var list models.LocationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 8)
	assert.Equal(t, "台北", list.Items[0].Name)
	assert.Empty(t, list.Query)
}
