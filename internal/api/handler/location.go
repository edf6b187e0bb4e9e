package handler

import (
	"context"
	"net/http"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/location"
)

// LocationResolver resolves search queries to locations.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) ([]location.Location, error)
	PopularCities() []location.Location
}

// LocationHandler handles the location endpoints.
type LocationHandler struct {
	resolver LocationResolver
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(resolver LocationResolver) *LocationHandler {
	return &LocationHandler{resolver: resolver}
}

// Search handles GET /v1/locations?q= - built-in cities first, then geocoding.
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	found, err := h.resolver.Resolve(r.Context(), query)
	if err != nil {
		response.WeatherError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.LocationList{Query: query, Items: found})
}

// Popular handles GET /v1/locations/popular - the built-in city list.
func (h *LocationHandler) Popular(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	response.JSON(w, r, http.StatusOK, models.LocationList{Items: h.resolver.PopularCities()})
}
