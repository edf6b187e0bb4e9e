package models

import "github.com/skycast/skycast/internal/location"

// LocationList is returned by the location search endpoints.
type LocationList struct {
	Query string              `json:"query,omitempty"`
	Items []location.Location `json:"items"`
}
