// Package store holds the local weather store backends.
package store

import (
	"context"
	"fmt"

	"github.com/skycast/skycast/internal/weather"
)

// Backend names accepted by CACHE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Migrator is implemented by stores that create their own schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Prepare runs the store's migration when it has one.
func Prepare(ctx context.Context, s weather.Store) error {
	m, ok := s.(Migrator)
	if !ok {
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate weather store: %w", err)
	}
	return nil
}
