// Package location resolves place names and coordinates to locations.
package location

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/weather"
)

const (
	// GeocodeLimit caps results from the geocoding service.
	GeocodeLimit = 5

	// nearbyDegrees is how close a coordinate must be to a built-in city to take its name.
	nearbyDegrees = 0.5
)

// Location is a named place.
type Location struct {
	Name      string   `json:"name" yaml:"name"`
	Latitude  float64  `json:"latitude" yaml:"lat"`
	Longitude float64  `json:"longitude" yaml:"lon"`
	Country   string   `json:"country" yaml:"country"`
	State     string   `json:"state,omitempty" yaml:"state"`
	Aliases   []string `json:"-" yaml:"aliases"`
}

// Geocoder looks places up remotely.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]Location, error)
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Cities searched before the geocoder.
	Cities []Location

	// Geocoder for queries no built-in city matches (optional).
	Geocoder Geocoder

	// Logger for resolver operations.
	Logger zerolog.Logger
}

// Resolver prefers the built-in cities and falls back to the geocoder.
type Resolver struct {
	cities   []Location
	geocoder Geocoder
	logger   zerolog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		cities:   cfg.Cities,
		geocoder: cfg.Geocoder,
		logger:   cfg.Logger,
	}
}

// Resolve returns the locations matching query. Built-in cities are matched
// by case-insensitive substring on name, aliases, state and country; the
// geocoder is only called when none match. No result is a location error.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]Location, error) {
	if err := weather.ValidateQuery(query); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)

	if local := r.matchBuiltin(query); len(local) > 0 {
		r.logger.Debug().Str("query", query).Int("matches", len(local)).Msg("resolved from built-in cities")
		return local, nil
	}

	if r.geocoder == nil {
		return nil, weather.NewLocationError("no matching location")
	}

	found, err := r.geocoder.Search(ctx, query, GeocodeLimit)
	if err != nil {
		r.logger.Warn().Err(err).Str("query", query).Msg("geocoding failed")
		return nil, weather.Translate(err)
	}
	if len(found) == 0 {
		return nil, weather.NewLocationError("no matching location")
	}

	if len(found) > GeocodeLimit {
		found = found[:GeocodeLimit]
	}
	return found, nil
}

// PopularCities returns a copy of the built-in city list.
func (r *Resolver) PopularCities() []Location {
	out := make([]Location, len(r.cities))
	copy(out, r.cities)
	return out
}

// ByCoordinates names a coordinate after the nearest built-in city within
// half a degree, keeping the given coordinates. Otherwise the location is
// named after the coordinates themselves.
func (r *Resolver) ByCoordinates(lat, lon float64) (Location, error) {
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return Location{}, err
	}

	best, bestDist := -1, math.Inf(1)
	for i, c := range r.cities {
		d := math.Hypot(c.Latitude-lat, c.Longitude-lon)
		if d <= nearbyDegrees && d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return Location{
			Name:      fmt.Sprintf("%.4f, %.4f", lat, lon),
			Latitude:  lat,
			Longitude: lon,
		}, nil
	}

	loc := r.cities[best]
	loc.Latitude = lat
	loc.Longitude = lon
	return loc, nil
}

func (r *Resolver) matchBuiltin(query string) []Location {
	q := strings.ToLower(query)

	var matches []Location
	for _, c := range r.cities {
		if c.matches(q) {
			matches = append(matches, c)
		}
	}
	return matches
}

func (l Location) matches(lowerQuery string) bool {
	fields := append([]string{l.Name, l.State, l.Country}, l.Aliases...)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}
