package weather

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/skycast/skycast/internal/weather"

// DefaultTTL is how long a cached record is served without a refresh.
const DefaultTTL = time.Hour

// Source fetches normalized weather from the remote provider.
type Source interface {
	// Fetch returns weather for a coordinate. Errors should already be
	// translated into the weather error taxonomy.
	Fetch(ctx context.Context, lat, lon float64) (*Weather, error)
}

// Store persists the latest weather record per cache key.
type Store interface {
	// Get returns the record for key, or ErrNotCached.
	Get(ctx context.Context, key string) (*Entity, error)

	// Put inserts or replaces the record with the same ID.
	Put(ctx context.Context, e *Entity) error

	// DeleteOlderThan removes records whose LastUpdated is before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

// Recorder receives cache and fetch measurements.
type Recorder interface {
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
	RecordFetch(ctx context.Context, duration time.Duration, err error)
}

// RepositoryConfig holds configuration for the weather repository.
type RepositoryConfig struct {
	// Source is the remote weather source.
	Source Source

	// Store is the local weather store.
	Store Store

	// Logger for repository operations.
	Logger zerolog.Logger

	// TTL is how long cached weather stays fresh (default: 1 hour).
	TTL time.Duration

	// RefreshTimeout bounds a refresh once it no longer follows the
	// caller's context (default: 2 minutes).
	RefreshTimeout time.Duration

	// Metrics records cache hits and fetches (optional).
	Metrics Recorder

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}

// Repository serves weather from the local store while it is fresh and
// refreshes it from the remote source otherwise.
type Repository struct {
	source         Source
	store          Store
	logger         zerolog.Logger
	ttl            time.Duration
	refreshTimeout time.Duration
	metrics        Recorder
	clock          func() time.Time
	tracer         trace.Tracer

	flight singleflight.Group
	feed   *feed
}

// NewRepository creates a new weather repository.
func NewRepository(cfg RepositoryConfig) *Repository {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout == 0 {
		refreshTimeout = 2 * time.Minute
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Repository{
		source:         cfg.Source,
		store:          cfg.Store,
		logger:         cfg.Logger,
		ttl:            ttl,
		refreshTimeout: refreshTimeout,
		metrics:        metrics,
		clock:          clock,
		tracer:         otel.Tracer(tracerName),
		feed:           newFeed(),
	}
}

// GetCurrentWeather returns cached weather when it is fresh and refreshes
// from the remote source otherwise. A failing local read counts as a miss.
func (r *Repository) GetCurrentWeather(ctx context.Context, lat, lon float64) (*Weather, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	ctx, span := r.startSpan(ctx, "weather.GetCurrentWeather", lat, lon)
	defer span.End()

	key := CacheKey(lat, lon)

	cached, err := r.load(ctx, key)
	switch {
	case err == nil && r.isFresh(cached):
		r.metrics.RecordCacheHit(ctx)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		r.logger.Debug().
			Str("key", key).
			Time("last_updated", cached.LastUpdated).
			Msg("serving cached weather")
		return cached, nil
	case err == nil:
		r.logger.Debug().
			Str("key", key).
			Time("last_updated", cached.LastUpdated).
			Msg("cached weather is stale")
	case !errors.Is(err, ErrNotCached):
		r.logger.Warn().Err(err).
			Str("key", key).
			Msg("local weather read failed, falling back to remote")
	}

	r.metrics.RecordCacheMiss(ctx)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	w, err := r.refresh(ctx, lat, lon)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return w, nil
}

// RefreshWeather fetches from the remote source regardless of cache state
// and writes the result through to the store. A failed cache write is
// logged and does not fail the refresh.
func (r *Repository) RefreshWeather(ctx context.Context, lat, lon float64) (*Weather, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	ctx, span := r.startSpan(ctx, "weather.RefreshWeather", lat, lon)
	defer span.End()

	w, err := r.refresh(ctx, lat, lon)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return w, nil
}

// Stream subscribes to weather for a coordinate. It emits a loading event,
// then follows the store: fresh records are forwarded, stale or missing
// ones trigger a refresh whose outcome is emitted.
func (r *Repository) Stream(ctx context.Context, lat, lon float64) (*Subscription, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	go r.runStream(ctx, sub, lat, lon)

	return sub, nil
}

// ClearCache removes every cached record, including ones written in the
// current millisecond.
func (r *Repository) ClearCache(ctx context.Context) error {
	cutoff := r.clock().Add(time.Millisecond)
	_, err := r.deleteOlderThan(ctx, cutoff)
	return err
}

// Sweep removes records last updated more than olderThan ago.
func (r *Repository) Sweep(ctx context.Context, olderThan time.Duration) (int64, error) {
	return r.deleteOlderThan(ctx, r.clock().Add(-olderThan))
}

// Ping checks the local store.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return NewCacheError("weather store unavailable", err)
	}
	return nil
}

// TTL returns the freshness window.
func (r *Repository) TTL() time.Duration {
	return r.ttl
}

func (r *Repository) deleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "weather.DeleteOlderThan")
	defer span.End()

	deleted, err := r.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		recordSpanError(span, err)
		r.logger.Error().Err(err).Time("cutoff", cutoff).Msg("failed to delete cached weather")
		return 0, NewCacheError("failed to clear weather cache", err)
	}

	r.feed.notifyAll()

	r.logger.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("deleted cached weather")

	return deleted, nil
}

// refresh runs one remote fetch per key at a time. The fetch and cache
// write are detached from ctx, so an abandoned caller does not cut them short.
func (r *Repository) refresh(ctx context.Context, lat, lon float64) (*Weather, error) {
	key := CacheKey(lat, lon)

	ch := r.flight.DoChan(key, func() (interface{}, error) {
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.refreshTimeout)
		defer cancel()
		return r.fetchAndStore(detached, lat, lon, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		w := *res.Val.(*Weather)
		return &w, nil
	case <-ctx.Done():
		return nil, Translate(ctx.Err())
	}
}

func (r *Repository) fetchAndStore(ctx context.Context, lat, lon float64, key string) (*Weather, error) {
	r.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("fetching weather from remote source")

	start := time.Now()
	w, err := r.source.Fetch(ctx, lat, lon)
	r.metrics.RecordFetch(ctx, time.Since(start), err)
	if err != nil {
		err = Translate(err)
		r.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("failed to fetch weather")
		return nil, err
	}

	// Records are keyed by the requested coordinates, the upstream may echo rounded ones.
	w.Latitude = lat
	w.Longitude = lon
	w.LastUpdated = time.UnixMilli(r.clock().UnixMilli())

	if err := r.save(ctx, w); err != nil {
		r.logger.Warn().Err(err).
			Str("key", key).
			Msg("failed to cache weather, returning fetched data")
	}

	return w, nil
}

func (r *Repository) save(ctx context.Context, w *Weather) error {
	entity, err := ToEntity(w)
	if err != nil {
		return NewCacheError("failed to encode weather", err)
	}
	if err := r.store.Put(ctx, entity); err != nil {
		return NewCacheError("failed to write weather", err)
	}
	r.feed.notify(entity.ID)
	return nil
}

func (r *Repository) load(ctx context.Context, key string) (*Weather, error) {
	entity, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotCached) {
			return nil, ErrNotCached
		}
		return nil, NewCacheError("failed to read weather", err)
	}

	w, err := entity.ToWeather()
	if err != nil {
		return nil, NewCacheError("malformed cached weather", err)
	}
	return w, nil
}

func (r *Repository) isFresh(w *Weather) bool {
	return r.clock().Sub(w.LastUpdated) < r.ttl
}

// change is one observation of a key in the store. Weather is nil when absent.
type change struct {
	weather *Weather
	err     error
}

// watch emits the current record for key and again after every write
// or delete, until ctx is done.
func (r *Repository) watch(ctx context.Context, key string) <-chan change {
	out := make(chan change)
	signal, unsubscribe := r.feed.subscribe(key)

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			w, err := r.load(ctx, key)
			if errors.Is(err, ErrNotCached) {
				err = nil
			}

			select {
			case out <- change{weather: w, err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (r *Repository) runStream(ctx context.Context, sub *Subscription, lat, lon float64) {
	defer sub.finish()

	if !sub.send(ctx, Event{Kind: EventLoading}) {
		return
	}

	key := CacheKey(lat, lon)
	var lastSent time.Time

	for c := range r.watch(ctx, key) {
		if c.err == nil && c.weather != nil && r.isFresh(c.weather) {
			// A refresh below already emitted this record.
			if c.weather.LastUpdated.Equal(lastSent) {
				continue
			}
			if !sub.send(ctx, Event{Kind: EventWeather, Weather: c.weather}) {
				return
			}
			lastSent = c.weather.LastUpdated
			continue
		}

		if c.err != nil {
			r.logger.Warn().Err(c.err).Str("key", key).Msg("local weather read failed in stream")
		}

		w, err := r.refresh(ctx, lat, lon)
		if err != nil {
			if !sub.send(ctx, Event{Kind: EventError, Err: err}) {
				return
			}
			continue
		}
		if !sub.send(ctx, Event{Kind: EventWeather, Weather: w}) {
			return
		}
		lastSent = w.LastUpdated
	}
}

func (r *Repository) startSpan(ctx context.Context, name string, lat, lon float64) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Float64("weather.lat", lat),
		attribute.Float64("weather.lon", lon),
	))
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit(context.Context)                    {}
func (nopRecorder) RecordCacheMiss(context.Context)                   {}
func (nopRecorder) RecordFetch(context.Context, time.Duration, error) {}
