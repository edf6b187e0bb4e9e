package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Target deletes cached weather records last updated before now minus olderThan.
type Target interface {
	Sweep(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SweepJob removes expired records from the weather cache.
type SweepJob struct {
	config SweepConfig
	target Target
	logger zerolog.Logger

	metrics *SweepMetrics
}

// SweepMetrics tracks sweep job statistics.
type SweepMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns     int64
	FailedRuns    int64
	RecordsPruned int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration

	LastError string
}

// SweepJobConfig holds configuration for creating a SweepJob.
type SweepJobConfig struct {
	Config SweepConfig
	Target Target
	Logger zerolog.Logger
}

// NewSweepJob creates a new sweep job. Zero config fields take their defaults.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	return &SweepJob{
		config:  cfg.Config.withDefaults(),
		target:  cfg.Target,
		logger:  cfg.Logger,
		metrics: &SweepMetrics{},
	}
}

// SweepResult contains the result of one sweep.
type SweepResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Retention time.Duration
	Deleted   int64
	Err       error
}

// Run executes one sweep.
func (j *SweepJob) Run(ctx context.Context) *SweepResult {
	startTime := time.Now()
	result := &SweepResult{
		StartTime: startTime,
		Retention: j.config.Retention,
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	result.Deleted, result.Err = j.target.Sweep(ctx, j.config.Retention)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	if result.Err != nil {
		j.logger.Error().
			Err(result.Err).
			Dur("retention", result.Retention).
			Msg("cache sweep failed")
		return result
	}

	j.logger.Info().
		Dur("duration", result.Duration).
		Dur("retention", result.Retention).
		Int64("deleted", result.Deleted).
		Msg("cache sweep completed")

	return result
}

func (j *SweepJob) updateMetrics(result *SweepResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration

	if result.Err != nil {
		j.metrics.FailedRuns++
		j.metrics.LastError = result.Err.Error()
		return
	}
	j.metrics.RecordsPruned += result.Deleted
	j.metrics.LastError = ""
}

// GetMetrics returns a copy of the current metrics.
func (j *SweepJob) GetMetrics() SweepMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return SweepMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		FailedRuns:      j.metrics.FailedRuns,
		RecordsPruned:   j.metrics.RecordsPruned,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
		LastError:       j.metrics.LastError,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *SweepJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	snapshot := map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"failed_runs":       m.FailedRuns,
		"records_pruned":    m.RecordsPruned,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"retention":         j.config.Retention.String(),
	}
	if m.LastError != "" {
		snapshot["last_error"] = m.LastError
	}
	return snapshot
}
