package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/skycast/skycast/internal/database"
	"github.com/skycast/skycast/internal/weather"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Postgres      database.PostgresConfig
}

// Open connects the configured backend and prepares its schema. The
// returned close function releases the connection.
func Open(ctx context.Context, cfg Config) (weather.Store, func(), error) {
	var (
		s       weather.Store
		closeFn = func() {}
	)

	switch cfg.Backend {
	case BackendMemory:
		s = NewMemoryStore()

	case BackendSQLite, "":
		db, err := database.ConnectSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s = NewSQLiteStore(db)
		closeFn = func() { _ = db.Close() }

	case BackendPostgres:
		pool, err := database.ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		s = NewPostgresStore(pool)
		closeFn = pool.Close

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		s = NewRedisStore(client, cfg.RedisPrefix)
		closeFn = func() { _ = client.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	if err := Prepare(ctx, s); err != nil {
		closeFn()
		return nil, nil, err
	}

	return s, closeFn, nil
}
