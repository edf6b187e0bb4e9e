package openweathermap

import (
	"sort"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

const (
	hourlySamples  = 24
	derivedDays    = 5
	dailyFeedDays  = 7
	defaultTZLabel = "UTC"
)

// Mapper converts upstream responses into the weather domain model.
// It does no I/O. Derived daily summaries are bucketed by calendar day in loc.
type Mapper struct {
	loc *time.Location
}

// NewMapper creates a mapper bucketing days in loc (UTC when nil).
func NewMapper(loc *time.Location) *Mapper {
	if loc == nil {
		loc = time.UTC
	}
	return &Mapper{loc: loc}
}

// ToWeather assembles one Weather from the three feeds. When the daily feed
// is empty, daily summaries are derived from the forecast. LastUpdated is
// left zero for the repository to stamp.
func (m *Mapper) ToWeather(current *CurrentResponse, forecast *ForecastResponse, daily *DailyResponse) *weather.Weather {
	w := &weather.Weather{
		Latitude:       current.Coord.Lat,
		Longitude:      current.Coord.Lon,
		Timezone:       defaultTZLabel,
		TimezoneOffset: current.Timezone,
		Current:        m.Current(current),
		Hourly:         []weather.Hourly{},
		Daily:          []weather.Daily{},
	}

	if forecast != nil {
		w.Hourly = m.Hourly(forecast.List)
	}

	switch {
	case daily != nil && len(daily.List) > 0:
		w.Daily = m.DailyFromFeed(daily.List)
	case forecast != nil:
		w.Daily = m.DailyFromForecast(forecast.List)
	}

	return w
}

// Current maps the current-conditions document. Dew point and UV index are
// not part of this feed and stay 0.
func (m *Mapper) Current(resp *CurrentResponse) weather.Current {
	return weather.Current{
		Timestamp:     resp.Dt,
		Sunrise:       resp.Sys.Sunrise,
		Sunset:        resp.Sys.Sunset,
		Temperature:   resp.Main.Temp,
		FeelsLike:     resp.Main.FeelsLike,
		Pressure:      resp.Main.Pressure,
		Humidity:      resp.Main.Humidity,
		Clouds:        resp.Clouds.All,
		Visibility:    resp.Visibility,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		WindGust:      resp.Wind.Gust,
		Conditions:    conditions(resp.Weather),
	}
}

// Hourly maps the first 24 forecast slots in feed order.
func (m *Mapper) Hourly(items []ForecastItem) []weather.Hourly {
	n := min(len(items), hourlySamples)
	hourly := make([]weather.Hourly, 0, n)

	for _, item := range items[:n] {
		hourly = append(hourly, weather.Hourly{
			Timestamp:                item.Dt,
			Temperature:              item.Main.Temp,
			FeelsLike:                item.Main.FeelsLike,
			Pressure:                 item.Main.Pressure,
			Humidity:                 item.Main.Humidity,
			Clouds:                   item.Clouds.All,
			Visibility:               item.Visibility,
			WindSpeed:                item.Wind.Speed,
			WindDirection:            item.Wind.Deg,
			WindGust:                 item.Wind.Gust,
			Conditions:               conditions(item.Weather),
			PrecipitationProbability: item.Pop,
		})
	}

	return hourly
}

// DailyFromForecast groups forecast slots by calendar day and summarizes the
// first 5 days in chronological order. Temperatures aggregate max/min/mean,
// precipitation probability is averaged, and every other field comes from
// the day's first slot.
func (m *Mapper) DailyFromForecast(items []ForecastItem) []weather.Daily {
	groups := make(map[int64][]ForecastItem)
	for _, item := range items {
		day := m.dayStart(item.Dt)
		groups[day] = append(groups[day], item)
	}

	days := make([]int64, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	if len(days) > derivedDays {
		days = days[:derivedDays]
	}

	daily := make([]weather.Daily, 0, len(days))
	for _, day := range days {
		daily = append(daily, summarize(day, groups[day]))
	}
	return daily
}

// DailyFromFeed maps the first 7 entries of the daily feed directly.
func (m *Mapper) DailyFromFeed(items []DailyItem) []weather.Daily {
	n := min(len(items), dailyFeedDays)
	daily := make([]weather.Daily, 0, n)

	for _, item := range items[:n] {
		daily = append(daily, weather.Daily{
			Timestamp: item.Dt,
			Sunrise:   item.Sunrise,
			Sunset:    item.Sunset,
			Temperature: weather.TemperatureRange{
				Day:     item.Temp.Day,
				Min:     item.Temp.Min,
				Max:     item.Temp.Max,
				Night:   item.Temp.Night,
				Evening: item.Temp.Eve,
				Morning: item.Temp.Morn,
			},
			FeelsLike: weather.FeelsLikeRange{
				Day:     item.FeelsLike.Day,
				Night:   item.FeelsLike.Night,
				Evening: item.FeelsLike.Eve,
				Morning: item.FeelsLike.Morn,
			},
			Pressure:                 item.Pressure,
			Humidity:                 item.Humidity,
			WindSpeed:                item.Speed,
			WindDirection:            item.Deg,
			WindGust:                 item.Gust,
			Conditions:               conditions(item.Weather),
			Clouds:                   item.Clouds,
			PrecipitationProbability: item.Pop,
		})
	}

	return daily
}

func (m *Mapper) dayStart(dt int64) int64 {
	t := time.Unix(dt, 0).In(m.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, m.loc).Unix()
}

// summarize builds one day's summary; items is never empty.
func summarize(day int64, items []ForecastItem) weather.Daily {
	first := items[0]

	maxTemp, minTemp, sumTemp := first.Main.Temp, first.Main.Temp, 0.0
	maxFeels, minFeels, sumFeels := first.Main.FeelsLike, first.Main.FeelsLike, 0.0
	sumPop := 0.0

	for _, item := range items {
		maxTemp = max(maxTemp, item.Main.Temp)
		minTemp = min(minTemp, item.Main.Temp)
		sumTemp += item.Main.Temp

		maxFeels = max(maxFeels, item.Main.FeelsLike)
		minFeels = min(minFeels, item.Main.FeelsLike)
		sumFeels += item.Main.FeelsLike

		sumPop += item.Pop
	}

	n := float64(len(items))
	avgTemp := sumTemp / n
	avgFeels := sumFeels / n

	return weather.Daily{
		Timestamp: day,
		Temperature: weather.TemperatureRange{
			Day:     maxTemp,
			Min:     minTemp,
			Max:     maxTemp,
			Night:   minTemp,
			Evening: avgTemp,
			Morning: avgTemp,
		},
		FeelsLike: weather.FeelsLikeRange{
			Day:     maxFeels,
			Night:   minFeels,
			Evening: avgFeels,
			Morning: avgFeels,
		},
		Pressure:                 first.Main.Pressure,
		Humidity:                 first.Main.Humidity,
		WindSpeed:                first.Wind.Speed,
		WindDirection:            first.Wind.Deg,
		WindGust:                 first.Wind.Gust,
		Conditions:               conditions(first.Weather),
		Clouds:                   first.Clouds.All,
		PrecipitationProbability: sumPop / n,
	}
}

func conditions(entries []conditionEntry) []weather.Condition {
	out := make([]weather.Condition, 0, len(entries))
	for _, e := range entries {
		out = append(out, weather.Condition{
			ID:          e.ID,
			Main:        e.Main,
			Description: e.Description,
			Icon:        e.Icon,
		})
	}
	return out
}
