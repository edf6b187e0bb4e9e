package handler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/store"
)

const (
	taipeiLat = 25.033
	taipeiLon = 121.5654
)

// fakeSource returns a clear, mild snapshot unless err is set.
type fakeSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSource) Fetch(_ context.Context, lat, lon float64) (*weather.Weather, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Weather{
		Latitude:  lat,
		Longitude: lon,
		Timezone:  "UTC",
		Current: weather.Current{
			Timestamp:   1767225600,
			Temperature: 22,
			FeelsLike:   22.5,
			Humidity:    50,
			WindSpeed:   2,
			Conditions:  []weather.Condition{{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"}},
		},
		Hourly: []weather.Hourly{},
		Daily:  []weather.Daily{},
	}, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testClock is a settable clock for the repository.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRepository(src weather.Source, clock *testClock) *weather.Repository {
	cfg := weather.RepositoryConfig{
		Source: src,
		Store:  store.NewMemoryStore(),
		Logger: zerolog.Nop(),
	}
	if clock != nil {
		cfg.Clock = clock.Now
	}
	return weather.NewRepository(cfg)
}

// fakeGeocoder answers every query with its fixed result.
type fakeGeocoder struct {
	results []location.Location
	err     error
}

func (g *fakeGeocoder) Search(context.Context, string, int) ([]location.Location, error) {
	return g.results, g.err
}

func newTestResolver(t *testing.T, geo location.Geocoder) *location.Resolver {
	t.Helper()
	cities, err := location.BuiltinCities()
	require.NoError(t, err)
	return location.NewResolver(location.ResolverConfig{
		Cities:   cities,
		Geocoder: geo,
		Logger:   zerolog.Nop(),
	})
}
