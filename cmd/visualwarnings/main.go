package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/app"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/config"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/logging"
)

func main() {
	cmd := &cli.App{
		Name:  "visualwarnings",
		Usage: "poll the NWS alert feed, render warning polygons, and deliver them to a webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to YAML configuration file"},
			&cli.StringFlag{Name: "feed-url", Usage: "alert feed URL to monitor"},
			&cli.StringFlag{Name: "output", Usage: "output directory for rendered images"},
			&cli.StringFlag{Name: "webhook", Usage: "webhook URL to send images to"},
			&cli.DurationFlag{Name: "interval", Usage: "check interval (e.g. 1m)"},
			&cli.DurationFlag{Name: "max-age", Usage: "maximum artifact age before cleanup (e.g. 48h)"},
			&cli.BoolFlag{Name: "run-once", Usage: "run a single check and exit"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "listen address for the Prometheus endpoint"},
			&cli.StringFlag{Name: "log-level", Usage: "log verbosity (debug, info, warn, error)"},
		},
		Action: run,
	}

	if err := cmd.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	var cfg config.Config
	if path := c.String("config"); path != "" {
		cfg = config.LoadPath(path)
	} else {
		cfg = config.Load()
	}
	applyFlags(c, &cfg)

	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.New(cfg, logger).Run(ctx)
}

// applyFlags lets explicit CLI flags win over file and environment values.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("feed-url") {
		cfg.Feed.URL = c.String("feed-url")
	}
	if c.IsSet("output") {
		cfg.Output.Dir = c.String("output")
	}
	if c.IsSet("webhook") {
		cfg.Webhook.URL = c.String("webhook")
	}
	if v := c.Duration("interval"); c.IsSet("interval") && v > 0 {
		cfg.Poll.Interval = v
	}
	if v := c.Duration("max-age"); c.IsSet("max-age") && v > 0 {
		cfg.Retention.MaxAge = v
	}
	if c.Bool("run-once") {
		cfg.Poll.RunOnce = true
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.ListenAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
}
