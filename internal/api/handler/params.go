package handler

import (
	"net/http"
	"strconv"

	"github.com/skycast/skycast/internal/api/models"
)

// coordinates parses the lat and lon query parameters. Range checks are
// left to the weather layer so every caller sees the same messages.
func coordinates(r *http.Request) (lat, lon float64, fieldErrors []models.FieldError) {
	lat, latErr := parseFloatParam(r, "lat")
	if latErr != nil {
		fieldErrors = append(fieldErrors, *latErr)
	}
	lon, lonErr := parseFloatParam(r, "lon")
	if lonErr != nil {
		fieldErrors = append(fieldErrors, *lonErr)
	}
	return lat, lon, fieldErrors
}

func parseFloatParam(r *http.Request, name string) (float64, *models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &models.FieldError{Field: name, Message: "required", Code: "REQUIRED"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &models.FieldError{Field: name, Message: "must be a number", Code: "INVALID_NUMBER"}
	}
	return v, nil
}
