// Package session holds the observable weather state for one interactive
// client: the selected location, its weather and analysis, and progress and
// error flags.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/weather"
)

// DefaultLocation is selected until the user picks another place.
var DefaultLocation = location.Location{
	Name:      "台北",
	Latitude:  25.0330,
	Longitude: 121.5654,
	Country:   "TW",
	State:     "台北市",
}

// State is a snapshot published to subscribers.
type State struct {
	Loading    bool
	Refreshing bool
	Weather    *weather.Weather
	Location   location.Location
	Analysis   *weather.Analysis
	Error      string
}

// WeatherService serves weather for a coordinate.
type WeatherService interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
	RefreshWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
}

// LocationResolver turns a query into candidate locations.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) ([]location.Location, error)
}

// Config holds the session's collaborators.
type Config struct {
	Weather   WeatherService
	Locations LocationResolver
	Analyzer  *weather.Analyzer
	Logger    zerolog.Logger

	// Initial is the starting location (default: DefaultLocation).
	Initial *location.Location
}

// Session is safe for concurrent use. Operations block until done and
// also report failures through State.Error.
type Session struct {
	weather   WeatherService
	locations LocationResolver
	analyzer  *weather.Analyzer
	logger    zerolog.Logger

	mu          sync.Mutex
	state       State
	subscribers map[chan State]struct{}
}

// New creates a session at cfg.Initial or DefaultLocation.
func New(cfg Config) *Session {
	initial := DefaultLocation
	if cfg.Initial != nil {
		initial = *cfg.Initial
	}

	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = weather.NewAnalyzer(weather.EnglishRecommendations())
	}

	return &Session{
		weather:     cfg.Weather,
		locations:   cfg.Locations,
		analyzer:    analyzer,
		logger:      cfg.Logger,
		state:       State{Location: initial},
		subscribers: make(map[chan State]struct{}),
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that always holds the latest snapshot,
// starting with the current one. Slow readers skip intermediate states.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
		})
	}
}

// Load fetches weather for the current location, from cache when fresh.
func (s *Session) Load(ctx context.Context) error {
	loc := s.update(func(st *State) {
		st.Loading = true
		st.Error = ""
	}).Location

	w, err := s.weather.GetCurrentWeather(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		s.fail(err, "failed to load weather")
		return err
	}

	s.succeed(w)
	return nil
}

// Refresh fetches weather for the current location, bypassing the cache.
func (s *Session) Refresh(ctx context.Context) error {
	loc := s.update(func(st *State) {
		st.Refreshing = true
		st.Error = ""
	}).Location

	w, err := s.weather.RefreshWeather(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		s.fail(err, "failed to refresh weather")
		return err
	}

	s.succeed(w)
	return nil
}

// Search resolves query, selects the first match and loads its weather.
// An invalid query only sets the error.
func (s *Session) Search(ctx context.Context, query string) error {
	if err := weather.ValidateQuery(query); err != nil {
		s.update(func(st *State) { st.Error = weather.DisplayMessage(err) })
		return err
	}

	s.update(func(st *State) {
		st.Loading = true
		st.Error = ""
	})

	found, err := s.locations.Resolve(ctx, query)
	if err != nil {
		s.fail(err, "location search failed")
		return err
	}

	return s.Select(ctx, found[0])
}

// Select switches to loc and loads its weather.
func (s *Session) Select(ctx context.Context, loc location.Location) error {
	if err := weather.ValidateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		s.update(func(st *State) {
			st.Loading = false
			st.Error = weather.DisplayMessage(err)
		})
		return err
	}

	s.update(func(st *State) { st.Location = loc })
	return s.Load(ctx)
}

// UpdateLocation moves to a bare coordinate, keeping the location's other
// fields, and loads its weather.
func (s *Session) UpdateLocation(ctx context.Context, lat, lon float64) error {
	loc := s.State().Location
	loc.Latitude = lat
	loc.Longitude = lon
	return s.Select(ctx, loc)
}

// ClearError dismisses the current error.
func (s *Session) ClearError() {
	s.update(func(st *State) { st.Error = "" })
}

func (s *Session) succeed(w *weather.Weather) {
	analysis := s.analyzer.Analyze(w)
	s.update(func(st *State) {
		st.Loading = false
		st.Refreshing = false
		st.Weather = w
		st.Analysis = &analysis
		st.Error = ""
	})
}

func (s *Session) fail(err error, msg string) {
	s.logger.Warn().Err(err).Msg(msg)
	s.update(func(st *State) {
		st.Loading = false
		st.Refreshing = false
		st.Error = weather.DisplayMessage(err)
	})
}

// update applies fn and publishes the result.
func (s *Session) update(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	for ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
	return s.state
}
