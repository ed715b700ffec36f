package schedule

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
)

// IntervalScheduler runs a job on a fixed period. The job executes once
// immediately on Start and then on every tick. Invocations never overlap:
// the ticker is only read again after the job returns, so a slow cycle
// simply delays the next one.
type IntervalScheduler struct {
	interval time.Duration
	clock    clock.Clock
	runNow   bool
	stop     chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// Option tweaks scheduler construction.
type Option func(*IntervalScheduler)

// WithClock substitutes the wall clock, used by tests.
func WithClock(c clock.Clock) Option {
	return func(s *IntervalScheduler) { s.clock = c }
}

// WithoutImmediateRun skips the initial synchronous invocation; the first
// run happens after one full interval.
func WithoutImmediateRun() Option {
	return func(s *IntervalScheduler) { s.runNow = false }
}

// NewIntervalScheduler builds a scheduler firing every interval.
func NewIntervalScheduler(interval time.Duration, opts ...Option) *IntervalScheduler {
	s := &IntervalScheduler{
		interval: interval,
		clock:    clock.New(),
		runNow:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins ticking until the context is cancelled or Stop is called.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := s.clock.Ticker(s.interval)
		defer ticker.Stop()

		if s.runNow {
			job(s.clock.Now())
		}
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
