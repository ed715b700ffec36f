package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/config"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/feed"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/infrastructure/nws"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/infrastructure/render"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/infrastructure/schedule"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/infrastructure/seenstore"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/infrastructure/webhook"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/logging"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/metrics"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/retention"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/tracker"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/usecase"
)

// Application wires configs to the lifecycle controller and orchestrates
// startup and shutdown.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Run validates configuration, assembles the adapters, and either executes
// a single cycle (run-once mode) or starts the periodic poll and sweep
// loops until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	renderer, err := render.NewMapRenderer(a.cfg.Output.Dir, a.logger.With("component", "renderer"))
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	registry := feed.NewRegistry()
	registry.Register(feed.GeoJSONDecoder{})
	registry.Register(feed.AtomDecoder{})

	client := &http.Client{Timeout: a.cfg.Feed.Timeout}
	source := nws.NewFetcher(client, a.cfg.Feed.URL, a.cfg.Feed.UserAgent, registry,
		a.logger.With("component", "fetcher"))

	var deliverer ports.Deliverer
	if a.cfg.Webhook.URL != "" {
		deliverer = webhook.NewDeliverer(a.cfg.Webhook.URL, a.cfg.Webhook.Username)
		a.logger.Info("webhook integration enabled")
	} else {
		a.logger.Warn("no webhook configured, alerts will be rendered but not delivered")
	}

	tr := tracker.New()
	store, closeStore, err := a.openSeenStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}
	if store != nil {
		ids, loadErr := store.Load(ctx)
		if loadErr != nil {
			a.logger.Warn("cannot load seen state, starting empty", "error", loadErr)
		} else {
			tr.Seed(ids)
			a.logger.Info("seen state restored", "ids", len(ids))
		}
	}

	controller := usecase.NewController(usecase.ControllerDeps{
		Source:    source,
		Renderer:  renderer,
		Deliverer: deliverer,
		Tracker:   tr,
		Store:     store,
		Logger:    a.logger.With("component", "controller"),
	})

	sweeper := retention.NewSweeper(a.cfg.Output.Dir, a.cfg.Retention.MaxAge, nil,
		a.logger.With("component", "sweeper"))

	metrics.Serve(a.cfg.Metrics.ListenAddr, a.logger.With("component", "metrics"))

	a.logger.Info("visual warnings service starting",
		"feed", a.cfg.Feed.URL,
		"interval", a.cfg.Poll.Interval,
		"output", a.cfg.Output.Dir,
		"max_age", a.cfg.Retention.MaxAge,
		"run_once", a.cfg.Poll.RunOnce,
	)

	if a.cfg.Poll.RunOnce {
		result, err := controller.RunCycle(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("single check completed",
			"fetched", result.Fetched,
			"new", result.New,
			"already_seen", result.AlreadySeen,
			"rendered", result.Rendered,
			"delivered", result.Delivered,
		)
		return nil
	}

	pollDriver := schedule.NewIntervalScheduler(a.cfg.Poll.Interval)
	sweepDriver := schedule.NewIntervalScheduler(a.cfg.Retention.SweepInterval,
		schedule.WithoutImmediateRun())

	runner := usecase.NewRunner(pollDriver, sweepDriver, controller, sweeper,
		a.logger.With("component", "runner"))
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("shutdown requested")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return runner.Stop(stopCtx)
}

// openSeenStore picks the durable backend for the seen set: Postgres when a
// DSN is configured, the JSON state file when a path is set, otherwise none.
func (a *Application) openSeenStore(ctx context.Context) (ports.SeenStore, func(), error) {
	if dsn := a.cfg.State.PostgresDSN; dsn != "" {
		pg, err := seenstore.OpenPostgresStore(ctx, dsn, a.cfg.State.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("open seen store: %w", err)
		}
		return pg, func() { _ = pg.Close() }, nil
	}
	if path := a.cfg.State.Path; path != "" {
		return seenstore.NewFileStore(path, a.cfg.State.TTL), nil, nil
	}
	return nil, nil, nil
}
