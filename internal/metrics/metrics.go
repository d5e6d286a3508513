// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videomixer",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "videomixer",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "route"})

	JobsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "videomixer",
		Name:      "jobs_started_total",
		Help:      "Total number of encode jobs that reached the running state.",
	})

	JobsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videomixer",
		Name:      "jobs_finished_total",
		Help:      "Total number of encode jobs by terminal state.",
	}, []string{"state"})

	JobRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "videomixer",
		Name:      "job_running",
		Help:      "1 while an encode job is running, otherwise 0.",
	})

	JobProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "videomixer",
		Name:      "job_progress_ratio",
		Help:      "Progress fraction of the running encode job.",
	})

	EncodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "videomixer",
		Name:      "encode_duration_seconds",
		Help:      "Wall-clock duration of finished encode jobs in seconds.",
		Buckets:   []float64{5, 30, 60, 300, 600, 1800, 3600, 7200},
	})

	ProbeFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videomixer",
		Name:      "probe_fallbacks_total",
		Help:      "Total number of stream properties replaced by defaults, by field.",
	}, []string{"field"})

	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "videomixer",
		Name:      "ws_clients",
		Help:      "Number of connected event stream clients.",
	})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		JobsStartedTotal,
		JobsFinishedTotal,
		JobRunning,
		JobProgress,
		EncodeDuration,
		ProbeFallbacksTotal,
		WSClients,
	)
}
