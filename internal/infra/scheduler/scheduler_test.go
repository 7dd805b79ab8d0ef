package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestScheduler_RunsJobOnInterval(t *testing.T) {
	var runs atomic.Int32

	s := New(0, zaptest.NewLogger(t), nil, Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) (int, error) {
			runs.Add(1)
			return 0, nil
		},
	})

	s.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if got := runs.Load(); got < 2 {
		t.Fatalf("expected at least 2 passes, got %d", got)
	}
}

func TestScheduler_SkipsTicksWhileRunning(t *testing.T) {
	var started atomic.Int32
	release := make(chan struct{})

	s := New(0, zaptest.NewLogger(t), nil, Job{
		Name:     "slow",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) (int, error) {
			started.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return 0, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)

	// Many ticks elapse while the first pass blocks; none may overlap it.
	time.Sleep(60 * time.Millisecond)
	if got := started.Load(); got != 1 {
		t.Fatalf("expected exactly 1 in-flight pass, got %d", got)
	}

	close(release)
	s.Stop()
}

func TestScheduler_StopWaitsForInFlightPass(t *testing.T) {
	var finished atomic.Bool

	s := New(0, zaptest.NewLogger(t), nil, Job{
		Name:     "slow",
		Interval: time.Hour,
		Run: func(context.Context) (int, error) {
			time.Sleep(30 * time.Millisecond)
			finished.Store(true)
			return 0, nil
		},
	})

	s.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	s.Stop()

	if !finished.Load() {
		t.Fatalf("expected Stop to wait for the running pass")
	}
}

func TestScheduler_InitialDelay(t *testing.T) {
	var runs atomic.Int32

	s := New(50*time.Millisecond, zaptest.NewLogger(t), nil, Job{
		Name:     "delayed",
		Interval: time.Hour,
		Run: func(context.Context) (int, error) {
			runs.Add(1)
			return 0, nil
		},
	})

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(10 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatalf("expected no pass before the initial delay")
	}

	time.Sleep(80 * time.Millisecond)
	if runs.Load() != 1 {
		t.Fatalf("expected exactly one pass after the initial delay, got %d", runs.Load())
	}
}
