// Package metrics provides Prometheus metrics for pulse.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts source fetches by outcome.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulse",
			Name:      "source_fetch_total",
			Help:      "Total number of source fetches",
		},
		[]string{"source", "status"},
	)

	// FetchDuration measures source fetch latency.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pulse",
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of source fetches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"source"},
	)

	// AggregateDuration measures a full aggregation pass.
	AggregateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pulse",
			Name:      "aggregate_duration_seconds",
			Help:      "Duration of aggregation passes in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// MergedTopics is the topic count of the latest aggregation.
	MergedTopics = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulse",
			Name:      "merged_topics",
			Help:      "Number of merged topics in the latest aggregation",
		},
	)

	// AlertsTotal counts alert deliveries.
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulse",
			Name:      "alerts_total",
			Help:      "Total number of alert deliveries",
		},
		[]string{"notifier", "status"},
	)
)

// RecordFetch records one source fetch.
func RecordFetch(source string, err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FetchTotal.WithLabelValues(source, status).Inc()
	FetchDuration.WithLabelValues(source).Observe(seconds)
}

// RecordAlert records one notifier delivery.
func RecordAlert(notifier string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	AlertsTotal.WithLabelValues(notifier, status).Inc()
}
