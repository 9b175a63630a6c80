package cron

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeLock struct {
	acquired bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name  string
	err   error
	panic bool
	block chan struct{}
	runs  atomic.Int32
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs.Add(1)
	if t.block != nil {
		select {
		case <-t.block:
		case <-ctx.Done():
		}
	}
	if t.panic {
		panic("job bug")
	}
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newTestScheduler(t *testing.T, reg prometheus.Registerer, entries ...Entry) *Scheduler {
	t.Helper()
	s, err := NewScheduler(SchedulerParams{
		Logger:   testLogger(),
		Registry: NewRegistry(entries...),
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct scheduler: %v", err)
	}
	return s
}

func TestRunOnceIsolatesFailuresAndPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	failing := &testJob{name: "fail", err: errors.New("boom")}
	panicking := &testJob{name: "panic", panic: true}
	ok := &testJob{name: "ok"}
	s := newTestScheduler(t, reg)

	ctx := context.Background()
	s.RunOnce(ctx, Entry{Job: failing, Schedule: Every(time.Minute)})
	s.RunOnce(ctx, Entry{Job: panicking, Schedule: Every(time.Minute)})
	s.RunOnce(ctx, Entry{Job: ok, Schedule: Every(time.Minute)})

	if ok.runs.Load() != 1 {
		t.Fatalf("expected healthy job to run once, ran %d", ok.runs.Load())
	}
	if n, err := testutil.GatherAndCount(reg, "scheduler_job_failure_total"); err != nil || n != 2 {
		t.Fatalf("expected 2 failure series, got %d (%v)", n, err)
	}
	if n, err := testutil.GatherAndCount(reg, "scheduler_job_success_total"); err != nil || n != 1 {
		t.Fatalf("expected 1 success series, got %d (%v)", n, err)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "sweep"}
	lock := &fakeLock{acquired: true}
	s := newTestScheduler(t, reg)

	s.RunOnce(context.Background(), Entry{Job: job, Schedule: Every(time.Minute), Lock: lock})

	if job.runs.Load() != 0 {
		t.Fatal("job must not run while its lock is held")
	}
	if n, err := testutil.GatherAndCount(reg, "scheduler_job_skipped_total"); err != nil || n != 1 {
		t.Fatalf("expected skipped metric, got %d (%v)", n, err)
	}
}

func TestRunOnceReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	s := newTestScheduler(t, nil)
	s.RunOnce(context.Background(), Entry{Job: &testJob{name: "x", panic: true}, Schedule: Every(time.Minute), Lock: lock})
	if lock.acquired || lock.releases != 1 {
		t.Fatalf("expected lock released after panic, got %+v", lock)
	}
}

func TestRunKeepsJobsIndependent(t *testing.T) {
	slow := &testJob{name: "slow", block: make(chan struct{})}
	fast := &testJob{name: "fast"}
	s := newTestScheduler(t, nil,
		Entry{Job: slow, Schedule: Every(5 * time.Millisecond)},
		Entry{Job: fast, Schedule: Every(5 * time.Millisecond)},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for fast.runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("fast job starved by slow job, ran %d times", fast.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if slow.runs.Load() != 1 {
		t.Fatalf("expected the blocked slow job to have started once, got %d", slow.runs.Load())
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunRequiresJobs(t *testing.T) {
	s := newTestScheduler(t, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error with no jobs")
	}
}
