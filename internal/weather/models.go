package weather

import (
	"strconv"
	"time"
)

// Weather is the unified forecast aggregate for one coordinate.
type Weather struct {
	// Location coordinates, together they form the cache key
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Timezone       string `json:"timezone"`
	TimezoneOffset int    `json:"timezoneOffset"` // seconds east of UTC

	Current Current  `json:"current"`
	Hourly  []Hourly `json:"hourly"`
	Daily   []Daily  `json:"daily"`

	// Alerts is never populated by the feeds in use.
	Alerts []Alert `json:"alerts,omitempty"`

	// LastUpdated is wall-clock time of the write that made this record authoritative.
	LastUpdated time.Time `json:"lastUpdated"`
}

// Key returns the cache key for the weather's coordinates.
func (w *Weather) Key() string {
	return CacheKey(w.Latitude, w.Longitude)
}

// PrimaryCondition returns the first condition of the current snapshot, if any.
func (w *Weather) PrimaryCondition() (Condition, bool) {
	if len(w.Current.Conditions) == 0 {
		return Condition{}, false
	}
	return w.Current.Conditions[0], true
}

// CacheKey builds the exact-match coordinate key "{lat}_{lon}".
// Coordinates are not rounded, so nearby points never share a key.
func CacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "_" + strconv.FormatFloat(lon, 'f', -1, 64)
}

// Current is the current-conditions snapshot.
// Timestamps are Unix seconds.
type Current struct {
	Timestamp     int64       `json:"dt"`
	Sunrise       int64       `json:"sunrise"`
	Sunset        int64       `json:"sunset"`
	Temperature   float64     `json:"temp"`
	FeelsLike     float64     `json:"feelsLike"`
	Pressure      int         `json:"pressure"`   // hPa
	Humidity      int         `json:"humidity"`   // percent
	DewPoint      float64     `json:"dewPoint"`   // always 0, not provided by the feeds
	UVIndex       float64     `json:"uvi"`        // always 0, not provided by the feeds
	Clouds        int         `json:"clouds"`     // percent
	Visibility    int         `json:"visibility"` // meters
	WindSpeed     float64     `json:"windSpeed"`
	WindDirection int         `json:"windDeg"`
	WindGust      *float64    `json:"windGust,omitempty"`
	Conditions    []Condition `json:"weather"`
}

// Hourly is one forecast sample. The feed in use has a 3-hour step.
type Hourly struct {
	Timestamp                int64       `json:"dt"`
	Temperature              float64     `json:"temp"`
	FeelsLike                float64     `json:"feelsLike"`
	Pressure                 int         `json:"pressure"`
	Humidity                 int         `json:"humidity"`
	DewPoint                 float64     `json:"dewPoint"`
	UVIndex                  float64     `json:"uvi"`
	Clouds                   int         `json:"clouds"`
	Visibility               int         `json:"visibility"`
	WindSpeed                float64     `json:"windSpeed"`
	WindDirection            int         `json:"windDeg"`
	WindGust                 *float64    `json:"windGust,omitempty"`
	Conditions               []Condition `json:"weather"`
	PrecipitationProbability float64     `json:"pop"` // 0.0-1.0
}

// Daily is a per-day summary.
type Daily struct {
	Timestamp                int64            `json:"dt"`
	Sunrise                  int64            `json:"sunrise"`
	Sunset                   int64            `json:"sunset"`
	Temperature              TemperatureRange `json:"temp"`
	FeelsLike                FeelsLikeRange   `json:"feelsLike"`
	Pressure                 int              `json:"pressure"`
	Humidity                 int              `json:"humidity"`
	DewPoint                 float64          `json:"dewPoint"`
	WindSpeed                float64          `json:"windSpeed"`
	WindDirection            int              `json:"windDeg"`
	WindGust                 *float64         `json:"windGust,omitempty"`
	Conditions               []Condition      `json:"weather"`
	Clouds                   int              `json:"clouds"`
	PrecipitationProbability float64          `json:"pop"`
	UVIndex                  float64          `json:"uvi"`
}

// TemperatureRange breaks a day's temperature down by period.
type TemperatureRange struct {
	Day     float64 `json:"day"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Night   float64 `json:"night"`
	Evening float64 `json:"eve"`
	Morning float64 `json:"morn"`
}

// FeelsLikeRange breaks a day's apparent temperature down by period.
type FeelsLikeRange struct {
	Day     float64 `json:"day"`
	Night   float64 `json:"night"`
	Evening float64 `json:"eve"`
	Morning float64 `json:"morn"`
}

// Condition is an upstream weather condition entry.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"` // short category, e.g. "Clear", "Rain"
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Alert is a weather alert issued for a location.
type Alert struct {
	SenderName  string   `json:"senderName"`
	Event       string   `json:"event"`
	Start       int64    `json:"start"`
	End         int64    `json:"end"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}
