// Package geocoder is an OpenWeatherMap direct-geocoding client.
package geocoder

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/weather"
)

// DefaultBaseURL is the OpenWeatherMap geocoding API base URL.
const DefaultBaseURL = "https://api.openweathermap.org/geo/1.0"

// Config holds configuration for the geocoding client.
type Config struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Timeout bounds each request (default: 30 seconds).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client looks up places by name.
type Client struct {
	http   *resty.Client
	apiKey string
	logger zerolog.Logger
}

// NewClient creates a new geocoding client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: cfg.APIKey,
		logger: cfg.Logger,
	}
}

// Search returns up to limit places matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]location.Location, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query,
			"limit": strconv.Itoa(limit),
			"appid": c.apiKey,
		}).
		Get("/direct")
	if err != nil {
		return nil, weather.Translate(err)
	}

	c.logger.Debug().
		Str("query", query).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("geocoding request completed")

	if resp.StatusCode() != http.StatusOK {
		return nil, weather.APIErrorFromStatus(resp.StatusCode())
	}

	var results []geocodingResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return nil, weather.Translate(err)
	}

	locations := make([]location.Location, 0, len(results))
	for _, r := range results {
		locations = append(locations, location.Location{
			Name:      r.displayName(),
			Latitude:  r.Lat,
			Longitude: r.Lon,
			Country:   r.Country,
			State:     r.State,
		})
	}
	return locations, nil
}

// OpenWeatherMap geocoding response structure.
type geocodingResult struct {
	Name       string            `json:"name"`
	LocalNames map[string]string `json:"local_names"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Country    string            `json:"country"`
	State      string            `json:"state"`
}

// displayName prefers the Chinese local name when the service provides one.
func (r geocodingResult) displayName() string {
	if name := r.LocalNames["zh"]; name != "" {
		return name
	}
	return r.Name
}
