package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/session"
	"github.com/skycast/skycast/internal/weather"
)

type call struct {
	method   string
	lat, lon float64
}

type mockWeather struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (m *mockWeather) record(method string, lat, lon float64) (*weather.Weather, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{method, lat, lon})
	if m.err != nil {
		return nil, m.err
	}
	return &weather.Weather{
		Latitude:  lat,
		Longitude: lon,
		Current: weather.Current{
			Temperature: 22,
			Humidity:    50,
			Conditions:  []weather.Condition{{Main: "Clear"}},
		},
	}, nil
}

func (m *mockWeather) GetCurrentWeather(_ context.Context, lat, lon float64) (*weather.Weather, error) {
	return m.record("get", lat, lon)
}

func (m *mockWeather) RefreshWeather(_ context.Context, lat, lon float64) (*weather.Weather, error) {
	return m.record("refresh", lat, lon)
}

func (m *mockWeather) lastCall() call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type mockResolver struct {
	results []location.Location
	err     error
	queries []string
}

func (m *mockResolver) Resolve(_ context.Context, query string) ([]location.Location, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

func newSession(w *mockWeather, r *mockResolver) *session.Session {
	return session.New(session.Config{
		Weather:   w,
		Locations: r,
		Analyzer:  weather.NewAnalyzer(weather.EnglishRecommendations()),
	})
}

func TestSession_InitialState(t *testing.T) {
	s := newSession(&mockWeather{}, &mockResolver{})

	st := s.State()
	assert.Equal(t, "台北", st.Location.Name)
	assert.Equal(t, 25.0330, st.Location.Latitude)
	assert.Nil(t, st.Weather)
	assert.False(t, st.Loading)
}

func TestSession_Load(t *testing.T) {
	w := &mockWeather{}
	s := newSession(w, &mockResolver{})

	require.NoError(t, s.Load(context.Background()))

	st := s.State()
	require.NotNil(t, st.Weather)
	require.NotNil(t, st.Analysis)
	assert.False(t, st.Loading)
	assert.Equal(t, weather.TemperatureMild, st.Analysis.TemperatureCategory)
	assert.Equal(t, call{"get", 25.0330, 121.5654}, w.lastCall())
}

func TestSession_LoadFailureSetsDisplayMessage(t *testing.T) {
	w := &mockWeather{err: weather.APIErrorFromStatus(401)}
	s := newSession(w, &mockResolver{})

	err := s.Load(context.Background())
	require.Error(t, err)

	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "Weather service error: invalid or expired API key", st.Error)

	s.ClearError()
	assert.Empty(t, s.State().Error)
}

func TestSession_Refresh(t *testing.T) {
	w := &mockWeather{}
	s := newSession(w, &mockResolver{})

	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, "refresh", w.lastCall().method)
	assert.False(t, s.State().Refreshing)
	assert.NotNil(t, s.State().Weather)
}

func TestSession_Search(t *testing.T) {
	tokyo := location.Location{Name: "東京", Latitude: 35.6762, Longitude: 139.6503, Country: "JP"}
	w := &mockWeather{}
	r := &mockResolver{results: []location.Location{tokyo}}
	s := newSession(w, r)

	require.NoError(t, s.Search(context.Background(), "Tokyo"))

	st := s.State()
	assert.Equal(t, tokyo, st.Location)
	assert.Equal(t, call{"get", 35.6762, 139.6503}, w.lastCall())
	assert.Equal(t, 35.6762, st.Weather.Latitude)
}

func TestSession_SearchInvalidQuery(t *testing.T) {
	r := &mockResolver{}
	s := newSession(&mockWeather{}, r)

	err := s.Search(context.Background(), " ")
	require.Error(t, err)

	assert.Empty(t, r.queries)
	assert.Equal(t, "Location error: search query must not be blank", s.State().Error)
}

func TestSession_SearchNoMatch(t *testing.T) {
	r := &mockResolver{err: weather.NewLocationError("no matching location")}
	s := newSession(&mockWeather{}, r)

	err := s.Search(context.Background(), "Atlantis")
	require.Error(t, err)

	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "Location error: no matching location", st.Error)
	assert.Equal(t, "台北", st.Location.Name)
}

func TestSession_UpdateLocation(t *testing.T) {
	w := &mockWeather{}
	s := newSession(w, &mockResolver{})

	require.NoError(t, s.UpdateLocation(context.Background(), 22.3193, 114.1694))
	assert.Equal(t, call{"get", 22.3193, 114.1694}, w.lastCall())

	err := s.UpdateLocation(context.Background(), 91, 0)
	assert.True(t, weather.IsKind(err, weather.KindLocation))
	assert.Equal(t, 22.3193, s.State().Location.Latitude)
}

func TestSession_SubscribeReceivesLatest(t *testing.T) {
	s := newSession(&mockWeather{}, &mockResolver{})

	states, unsubscribe := s.Subscribe()
	defer unsubscribe()

	initial := <-states
	assert.Nil(t, initial.Weather)

	require.NoError(t, s.Load(context.Background()))

	latest := <-states
	assert.NotNil(t, latest.Weather)
	assert.False(t, latest.Loading)

	unsubscribe()
	s.ClearError()
	select {
	case st := <-states:
		t.Fatalf("unexpected state after unsubscribe: %+v", st)
	default:
	}
}
