// Package metrics exposes Prometheus counters and gauges for the
// tick-database server, grounded on the teacher's pkg/metrics/prometheus
// collectors but trimmed to this domain's concerns.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server records against.
type Metrics struct {
	ConnectionsTotal     prometheus.Counter
	ConnectionsActive    prometheus.Gauge
	CommandsTotal        *prometheus.CounterVec
	FlushesTotal         *prometheus.CounterVec
	BootstrapScanSeconds prometheus.Histogram
}

// New registers and returns a fresh Metrics against reg. Pass
// prometheus.DefaultRegisterer for process-wide metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tectonic_connections_total",
			Help: "Total TCP connections accepted.",
		}),
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tectonic_connections_active",
			Help: "Currently active TCP connections.",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tectonic_commands_total",
			Help: "Total commands dispatched, by command verb.",
		}, []string{"command"}),
		FlushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tectonic_flushes_total",
			Help: "Total store flushes requested by FLUSH and FLUSH ALL (autoflushes not included), by store name.",
		}, []string{"store"}),
		BootstrapScanSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tectonic_bootstrap_scan_seconds",
			Help:    "Time spent scanning the data folder during connection bootstrap.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs an HTTP server exposing /metrics on addr until ctx is
// cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
