package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visualwarnings_cycles_total",
		Help: "Completed poll cycles by outcome",
	}, []string{"result"})

	NewAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visualwarnings_new_alerts_total",
		Help: "Alerts seen for the first time",
	})

	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visualwarnings_renders_total",
		Help: "Render attempts by outcome",
	}, []string{"result"})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visualwarnings_deliveries_total",
		Help: "Webhook deliveries by outcome",
	}, []string{"result"})

	ArtifactsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visualwarnings_artifacts_deleted_total",
		Help: "Artifacts removed by the retention sweeper",
	})

	SeenSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "visualwarnings_seen_set_size",
		Help: "Number of alert identifiers recorded this run",
	})
)

// Serve exposes /metrics on addr in a background goroutine. Errors are
// logged, never fatal; the exporter is an observability extra.
func Serve(addr string, log *slog.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}
	}()
}
