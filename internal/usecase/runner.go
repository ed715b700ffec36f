package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/retention"
)

// Runner ties the two periodic tasks to their drivers: poll cycles on one
// schedule, retention sweeps on another. The tasks run concurrently with
// each other, but each driver serializes its own invocations.
type Runner struct {
	pollDriver  ports.Scheduler
	sweepDriver ports.Scheduler
	controller  *Controller
	sweeper     *retention.Sweeper
	logger      *slog.Logger
}

// NewRunner returns a helper to start/stop the recurring jobs.
func NewRunner(pollDriver, sweepDriver ports.Scheduler, controller *Controller, sweeper *retention.Sweeper, log *slog.Logger) *Runner {
	return &Runner{
		pollDriver:  pollDriver,
		sweepDriver: sweepDriver,
		controller:  controller,
		sweeper:     sweeper,
		logger:      log,
	}
}

// Start registers both jobs with their schedulers.
func (r *Runner) Start(ctx context.Context) error {
	if r.pollDriver != nil && r.controller != nil {
		poll := func(time.Time) {
			result, err := r.controller.RunCycle(ctx)
			if err != nil {
				r.logger.Error("poll cycle failed", "error", err)
				return
			}
			r.logger.Info("poll cycle completed",
				"fetched", result.Fetched,
				"new", result.New,
				"already_seen", result.AlreadySeen,
				"no_polygon", result.NoPolygon,
				"rendered", result.Rendered,
				"render_failed", result.RenderFailed,
				"delivered", result.Delivered,
				"delivery_failed", result.DeliveryFailed,
			)
		}
		if err := r.pollDriver.Start(ctx, poll); err != nil {
			return err
		}
	}

	if r.sweepDriver != nil && r.sweeper != nil {
		sweep := func(time.Time) {
			if _, err := r.sweeper.Sweep(ctx); err != nil {
				r.logger.Error("retention sweep failed", "error", err)
			}
		}
		if err := r.sweepDriver.Start(ctx, sweep); err != nil {
			return err
		}
	}

	return nil
}

// Stop gracefully tears down both schedulers.
func (r *Runner) Stop(ctx context.Context) error {
	if r.pollDriver != nil {
		if err := r.pollDriver.Stop(ctx); err != nil {
			return err
		}
	}
	if r.sweepDriver != nil {
		return r.sweepDriver.Stop(ctx)
	}
	return nil
}
