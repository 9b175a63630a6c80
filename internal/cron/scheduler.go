package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
)

// SchedulerParams configure the scheduler.
type SchedulerParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Metrics    *metrics.CronJobMetrics
	RunOnStart bool
}

// Scheduler runs every registered job on its own timer. Jobs never share a
// goroutine, so a slow or failing job cannot delay the others.
type Scheduler struct {
	logg       *logger.Logger
	registry   *Registry
	metrics    *metrics.CronJobMetrics
	runOnStart bool
	now        func() time.Time
}

// NewScheduler builds a scheduler.
func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Scheduler{
		logg:       params.Logger,
		registry:   registry,
		metrics:    params.Metrics,
		runOnStart: params.RunOnStart,
		now:        time.Now,
	}, nil
}

// Run starts one loop per entry and blocks until the context is canceled and
// every in-flight run has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	entries := s.registry.Entries()
	if len(entries) == 0 {
		return fmt.Errorf("no cron jobs registered")
	}

	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func(entry Entry) {
			defer wg.Done()
			s.loop(ctx, entry)
		}(entry)
	}

	s.logg.Info(s.logg.WithField(ctx, "jobs", len(entries)), "scheduler started")
	wg.Wait()
	s.logg.Info(ctx, "scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, entry Entry) {
	jobCtx := s.logg.WithField(s.logg.WithJob(ctx, entry.Job.Name()), "schedule", entry.Schedule.String())

	if s.runOnStart {
		s.RunOnce(ctx, entry)
	}

	for {
		next := entry.Schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logg.Debug(jobCtx, "job loop stopped")
			return
		case <-timer.C:
			s.RunOnce(ctx, entry)
		}
	}
}

// RunOnce executes a single run of entry. Failures and panics are logged and
// recorded, never propagated.
func (s *Scheduler) RunOnce(ctx context.Context, entry Entry) {
	name := entry.Job.Name()
	jobCtx := s.logg.WithJob(ctx, name)
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")

	if entry.Lock != nil {
		locked, err := entry.Lock.Acquire(jobCtx)
		if err != nil {
			s.logg.Error(jobCtx, "job lock acquire failed", err)
			s.metrics.IncFailure(name)
			return
		}
		if !locked {
			s.logg.Info(jobCtx, "previous run still holds the job lock; skipping")
			s.metrics.IncSkipped(name)
			return
		}
		defer func() {
			if relErr := entry.Lock.Release(jobCtx); relErr != nil {
				s.logg.Error(jobCtx, "failed to release job lock", relErr)
			}
		}()
	}

	s.logg.Info(jobCtx, "job start")
	start := s.now()
	err := s.invoke(jobCtx, entry.Job)
	duration := s.now().Sub(start)
	s.metrics.ObserveDuration(name, duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(name)
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(name)
}

func (s *Scheduler) invoke(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}
