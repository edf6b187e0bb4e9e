package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skycast/skycast/internal/weather"
)

// PostgresStore persists weather records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL weather store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the weather_cache table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS weather_cache (
			id TEXT PRIMARY KEY,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			timezone TEXT NOT NULL,
			current_weather TEXT NOT NULL,
			hourly_forecast TEXT NOT NULL,
			daily_forecast TEXT NOT NULL,
			last_updated BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_weather_cache_last_updated ON weather_cache (last_updated);
	`)
	if err != nil {
		return fmt.Errorf("create weather_cache table: %w", err)
	}
	return nil
}

// Get returns the record for key.
func (s *PostgresStore) Get(ctx context.Context, key string) (*weather.Entity, error) {
	query := `
		SELECT id, latitude, longitude, timezone,
		       current_weather, hourly_forecast, daily_forecast, last_updated
		FROM weather_cache
		WHERE id = $1
	`

	var e weather.Entity
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&e.ID,
		&e.Latitude,
		&e.Longitude,
		&e.Timezone,
		&e.Current,
		&e.Hourly,
		&e.Daily,
		&e.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, weather.ErrNotCached
		}
		return nil, err
	}

	return &e, nil
}

// Put inserts or replaces the record with the same ID.
func (s *PostgresStore) Put(ctx context.Context, e *weather.Entity) error {
	query := `
		INSERT INTO weather_cache
			(id, latitude, longitude, timezone, current_weather, hourly_forecast, daily_forecast, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			timezone = EXCLUDED.timezone,
			current_weather = EXCLUDED.current_weather,
			hourly_forecast = EXCLUDED.hourly_forecast,
			daily_forecast = EXCLUDED.daily_forecast,
			last_updated = EXCLUDED.last_updated
	`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.Latitude, e.Longitude, e.Timezone, e.Current, e.Hourly, e.Daily, e.LastUpdated)
	return err
}

// DeleteOlderThan removes records last updated before cutoff.
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM weather_cache WHERE last_updated < $1`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
