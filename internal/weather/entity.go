package weather

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity is the persisted shape of a Weather record.
// The three time-series sections are stored as JSON text blobs.
type Entity struct {
	ID          string  `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Current     string  `json:"currentWeather"`
	Hourly      string  `json:"hourlyForecast"`
	Daily       string  `json:"dailyForecast"`
	LastUpdated int64   `json:"lastUpdated"` // Unix milliseconds
}

// UpdatedAt returns LastUpdated as a time.
func (e *Entity) UpdatedAt() time.Time {
	return time.UnixMilli(e.LastUpdated)
}

// ToEntity converts w to its persisted form.
// TimezoneOffset and Alerts are not persisted.
func ToEntity(w *Weather) (*Entity, error) {
	current, err := json.Marshal(w.Current)
	if err != nil {
		return nil, fmt.Errorf("encoding current: %w", err)
	}

	hourly, err := json.Marshal(nonNil(w.Hourly))
	if err != nil {
		return nil, fmt.Errorf("encoding hourly: %w", err)
	}

	daily, err := json.Marshal(nonNil(w.Daily))
	if err != nil {
		return nil, fmt.Errorf("encoding daily: %w", err)
	}

	return &Entity{
		ID:          w.Key(),
		Latitude:    w.Latitude,
		Longitude:   w.Longitude,
		Timezone:    w.Timezone,
		Current:     string(current),
		Hourly:      string(hourly),
		Daily:       string(daily),
		LastUpdated: w.LastUpdated.UnixMilli(),
	}, nil
}

// ToWeather restores a Weather from its persisted form.
// TimezoneOffset comes back as 0 and Alerts as nil.
func (e *Entity) ToWeather() (*Weather, error) {
	w := &Weather{
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		Timezone:    e.Timezone,
		LastUpdated: e.UpdatedAt(),
	}

	if err := json.Unmarshal([]byte(e.Current), &w.Current); err != nil {
		return nil, fmt.Errorf("decoding current: %w", err)
	}
	if err := json.Unmarshal([]byte(e.Hourly), &w.Hourly); err != nil {
		return nil, fmt.Errorf("decoding hourly: %w", err)
	}
	if err := json.Unmarshal([]byte(e.Daily), &w.Daily); err != nil {
		return nil, fmt.Errorf("decoding daily: %w", err)
	}

	return w, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
