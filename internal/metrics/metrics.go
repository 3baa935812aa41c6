package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts UI requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataprobe_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of UI requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataprobe_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// ActionsTotal counts session actions (load, describe, visualize, ask, filter, ...).
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataprobe_actions_total",
			Help: "Total number of session actions by outcome",
		},
		[]string{"action", "outcome"},
	)
	// LLMDuration is the time spent waiting for question answers.
	LLMDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dataprobe_llm_request_duration_seconds",
			Help:    "Latency of language model calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
	// DatasetRows is the row count of the live dataset.
	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataprobe_dataset_rows",
			Help: "Rows in the currently loaded dataset",
		},
	)
)

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected" // user input error
	OutcomeFailed   = "failed"   // collaborator or internal failure
)

// RecordAction counts one action with its outcome
func RecordAction(action, outcome string) {
	ActionsTotal.WithLabelValues(action, outcome).Inc()
}
