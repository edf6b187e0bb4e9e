package models

import (
	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/weather"
)

// WeatherResponse is returned by the weather read and refresh endpoints.
type WeatherResponse struct {
	Weather  *weather.Weather  `json:"weather"`
	Analysis *weather.Analysis `json:"analysis,omitempty"`

	// Location is the nearest built-in city, or a coordinate label.
	Location location.Location `json:"location"`
}

// CacheSweepResponse reports the result of a cache sweep.
type CacheSweepResponse struct {
	Deleted   int64     `json:"deleted"`
	OlderThan string    `json:"olderThan"`
	Time      Timestamp `json:"time"`
}

// StreamError is the payload of an "error" stream event.
type StreamError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
