package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

// SQLiteStore persists weather records in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open SQLite database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Migrate creates the weather table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS weather (
		id TEXT PRIMARY KEY,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		timezone TEXT NOT NULL,
		current_weather TEXT NOT NULL,
		hourly_forecast TEXT NOT NULL,
		daily_forecast TEXT NOT NULL,
		last_updated INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create weather table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_weather_last_updated ON weather(last_updated)`)
	if err != nil {
		return fmt.Errorf("create weather index: %w", err)
	}
	return nil
}

// Get returns the record for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*weather.Entity, error) {
	query := `
		SELECT id, latitude, longitude, timezone, current_weather, hourly_forecast, daily_forecast, last_updated
		FROM weather
		WHERE id = ?
	`

	var e weather.Entity
	err := s.db.QueryRowContext(ctx, query, key).Scan(
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, weather.ErrNotCached
		}
		return nil, err
	}

	return &e, nil
}

// Put inserts or replaces the record with the same ID.
func (s *SQLiteStore) Put(ctx context.Context, e *weather.Entity) error {
	query := `
		INSERT OR REPLACE INTO weather
			(id, latitude, longitude, timezone, current_weather, hourly_forecast, daily_forecast, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Latitude, e.Longitude, e.Timezone, e.Current, e.Hourly, e.Daily, e.LastUpdated)
	return err
}

// DeleteOlderThan removes records last updated before cutoff.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM weather WHERE last_updated < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
