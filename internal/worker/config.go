// Package worker runs the scheduled cache sweep for Skycast.
package worker

import (
	"errors"
	"time"
)

// SweepConfig holds configuration for the cache sweep job.
type SweepConfig struct {
	// Interval is how often the sweep runs.
	// Default: 1 hour
	Interval time.Duration

	// Retention is how long a cached record is kept after its last update.
	// Records older than this are deleted. It should stay well above the
	// cache TTL so that stale records remain available as a fallback.
	// Default: 24 hours
	Retention time.Duration

	// Timeout bounds a single sweep.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Interval:  time.Hour,
		Retention: 24 * time.Hour,
		Timeout:   30 * time.Second,
	}
}

// Validate rejects non-positive durations.
func (c SweepConfig) Validate() error {
	switch {
	case c.Interval <= 0:
		return errors.New("sweep interval must be positive")
	case c.Retention <= 0:
		return errors.New("sweep retention must be positive")
	case c.Timeout <= 0:
		return errors.New("sweep timeout must be positive")
	}
	return nil
}

// withDefaults fills zero fields from DefaultSweepConfig.
func (c SweepConfig) withDefaults() SweepConfig {
	def := DefaultSweepConfig()
	if c.Interval == 0 {
		c.Interval = def.Interval
	}
	if c.Retention == 0 {
		c.Retention = def.Retention
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	return c
}
