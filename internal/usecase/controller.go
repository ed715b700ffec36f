package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/metrics"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/tracker"
)

// ControllerDeps wires all driven adapters into the lifecycle controller.
type ControllerDeps struct {
	Source    ports.AlertSource
	Renderer  ports.Renderer
	Deliverer ports.Deliverer
	Tracker   *tracker.Tracker
	Store     ports.SeenStore
	Logger    *slog.Logger
}

// Controller executes the alert lifecycle: fetch, diff against the seen set,
// render and deliver each new alert, then commit the whole batch.
type Controller struct {
	source    ports.AlertSource
	renderer  ports.Renderer
	deliverer ports.Deliverer
	tracker   *tracker.Tracker
	store     ports.SeenStore
	logger    *slog.Logger
}

// NewController constructs the orchestration component.
func NewController(deps ControllerDeps) *Controller {
	tr := deps.Tracker
	if tr == nil {
		tr = tracker.New()
	}
	return &Controller{
		source:    deps.Source,
		renderer:  deps.Renderer,
		deliverer: deps.Deliverer,
		tracker:   tr,
		store:     deps.Store,
		logger:    deps.Logger,
	}
}

// RunCycle executes exactly one fetch-diff-render-deliver-commit pass.
//
// A fetch failure aborts the cycle with no state change; the next scheduled
// cycle retries. Render and delivery failures for individual alerts are
// logged and isolated: they neither abort the cycle nor keep the identifier
// out of the commit, so a permanently malformed alert is skipped forever
// instead of retried every cycle. The commit is a single batch at the end,
// which biases a crash mid-cycle toward re-notification rather than silent
// loss.
func (c *Controller) RunCycle(ctx context.Context) (domain.CycleResult, error) {
	var res domain.CycleResult

	alerts, err := c.source.FetchActive(ctx)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("fetch_error").Inc()
		return res, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	res.Fetched = len(alerts)

	fresh := make([]domain.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if !c.tracker.IsNew(alert.ID) {
			res.AlreadySeen++
			continue
		}
		fresh = append(fresh, alert)
	}
	res.New = len(fresh)
	c.debug("cycle diff", "fetched", res.Fetched, "new", res.New, "already_seen", res.AlreadySeen)

	for _, alert := range fresh {
		if err := ctx.Err(); err != nil {
			// Shutdown requested mid-cycle: abort without committing so the
			// unprocessed alerts reappear as new on the next start.
			return res, err
		}

		if !alert.HasPolygon() {
			res.NoPolygon++
			metrics.RendersTotal.WithLabelValues("no_polygon").Inc()
			c.warn("no polygon data for alert", "alert", alert.ID, "event", alert.Event)
			continue
		}

		imagePath, err := c.renderer.RenderMap(ctx, alert)
		if err != nil {
			res.RenderFailed++
			metrics.RendersTotal.WithLabelValues("error").Inc()
			c.error("render failed", "alert", alert.ID, "event", alert.Event,
				"error", fmt.Errorf("%w: %w", domain.ErrRender, err))
			continue
		}
		res.Rendered++
		metrics.RendersTotal.WithLabelValues("ok").Inc()

		if c.deliverer == nil {
			continue
		}
		if err := c.deliverer.Deliver(ctx, imagePath, alert); err != nil {
			res.DeliveryFailed++
			metrics.DeliveriesTotal.WithLabelValues("error").Inc()
			c.error("delivery failed", "alert", alert.ID,
				"error", fmt.Errorf("%w: %w", domain.ErrDeliver, err))
			continue
		}
		res.Delivered++
		metrics.DeliveriesTotal.WithLabelValues("ok").Inc()
	}

	c.commit(ctx, fresh)

	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	metrics.NewAlertsTotal.Add(float64(res.New))
	return res, nil
}

// commit records the whole batch of new identifiers, successes and failures
// alike, then persists the snapshot when a durable store is configured.
func (c *Controller) commit(ctx context.Context, fresh []domain.Alert) {
	for _, alert := range fresh {
		c.tracker.Record(alert.ID)
	}
	metrics.SeenSetSize.Set(float64(c.tracker.Len()))

	if c.store == nil || len(fresh) == 0 {
		return
	}
	if err := c.store.Save(ctx, c.tracker.Snapshot()); err != nil {
		c.error("persist seen set failed", "error", err)
	}
}

func (c *Controller) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Controller) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) error(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}
