package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// gosched gives the scheduler goroutine a chance to run between mock-clock
// adjustments.
func gosched() { time.Sleep(5 * time.Millisecond) }

func TestIntervalSchedulerTicks(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	s := NewIntervalScheduler(time.Minute, WithClock(mock), WithoutImmediateRun())

	var mu sync.Mutex
	runs := 0
	job := func(time.Time) {
		mu.Lock()
		runs++
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, job); err != nil {
		t.Fatalf("Start: %v", err)
	}
	gosched()

	mock.Add(time.Minute)
	gosched()
	mock.Add(time.Minute)
	gosched()

	mu.Lock()
	got := runs
	mu.Unlock()
	if got != 2 {
		t.Fatalf("expected 2 runs after 2 intervals, got %d", got)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	gosched()

	mock.Add(time.Minute)
	gosched()

	mu.Lock()
	after := runs
	mu.Unlock()
	if after != got {
		t.Fatalf("job ran after Stop: %d -> %d", got, after)
	}
}

func TestIntervalSchedulerImmediateRun(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	s := NewIntervalScheduler(time.Minute, WithClock(mock))

	done := make(chan struct{})
	var once sync.Once
	job := func(time.Time) { once.Do(func() { close(done) }) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, job); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("immediate run did not happen")
	}
}

func TestIntervalSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Minute)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start with nil job: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop without Start: %v", err)
	}
}
