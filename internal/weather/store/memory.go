package store

import (
	"context"
	"sync"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

// MemoryStore keeps weather records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]weather.Entity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]weather.Entity)}
}

// Get returns the record for key.
func (s *MemoryStore) Get(_ context.Context, key string) (*weather.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[key]
	if !ok {
		return nil, weather.ErrNotCached
	}
	return &e, nil
}

// Put replaces the record with the same ID.
func (s *MemoryStore) Put(_ context.Context, e *weather.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[e.ID] = *e
	return nil
}

// DeleteOlderThan removes records last updated before cutoff.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, e := range s.records {
		if e.LastUpdated < cutoff.UnixMilli() {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
