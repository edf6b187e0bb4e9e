package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/skycast/skycast/internal/weather"
)

// DefaultRedisPrefix namespaces weather keys in a shared Redis.
const DefaultRedisPrefix = "skycast:weather:"

const scanBatch = 100

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore keeps one JSON document per cache key.
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore creates a store using prefix for its keys (DefaultRedisPrefix when empty).
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get returns the record for key.
func (s *RedisStore) Get(ctx context.Context, key string) (*weather.Entity, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, weather.ErrNotCached
		}
		return nil, err
	}

	var e weather.Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &e, nil
}

// Put replaces the record with the same ID.
func (s *RedisStore) Put(ctx context.Context, e *weather.Entity) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.ID, err)
	}
	return s.client.Set(ctx, s.prefix+e.ID, data, 0).Err()
}

// DeleteOlderThan scans the prefix and removes records last updated
// before cutoff. Undecodable records are removed too.
func (s *RedisStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return deleted, err
		}

		var expired []string
		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return deleted, err
			}

			var e weather.Entity
			if json.Unmarshal(data, &e) != nil || e.LastUpdated < cutoff.UnixMilli() {
				expired = append(expired, key)
			}
		}

		if len(expired) > 0 {
			n, err := s.client.Del(ctx, expired...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
