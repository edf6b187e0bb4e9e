package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs a SweepJob on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *SweepJob
}

// NewScheduler creates a scheduler for job. Nothing runs until Start.
func NewScheduler(job *SweepJob) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
	}
}

// Start schedules the sweep and starts the underlying scheduler. The
// first sweep runs immediately; overlapping runs are skipped.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.job.config.Interval).SingletonMode().Do(func() {
		s.job.Run(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}

	s.job.logger.Info().
		Dur("interval", s.job.config.Interval).
		Dur("retention", s.job.config.Retention).
		Msg("cache sweep scheduled")

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future sweeps.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Job returns the scheduled job, for metrics.
func (s *Scheduler) Job() *SweepJob {
	return s.job
}
