package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcs_agent"

var (
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Requests rejected by the token check, by reason.",
	}, []string{"reason"})

	DispatchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_runs_total",
		Help:      "Finished action and query runs, by target and result.",
	}, []string{"target", "discipline", "result"})

	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Wall time of action and query runs.",
		Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300},
	}, []string{"target"})

	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "streams_active",
		Help:      "Streaming children currently attached to a client.",
	})

	LogWindowReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "log_window_reads_total",
		Help:      "Log window requests, by log name.",
	}, []string{"log"})

	PrunedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "run_history_pruned_total",
		Help:      "Run history rows removed by the retention sweep.",
	})
)

// Handler serves the default registry in the exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
