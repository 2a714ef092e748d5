// Package metrics holds the Prometheus collectors for the analysis pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage outcomes used as the "result" label.
const (
	ResultOK       = "ok"
	ResultEmpty    = "empty"
	ResultError    = "error"
	ResultDisabled = "disabled"
)

var (
	once sync.Once

	// StageTotal counts stage runs by stage and outcome.
	StageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_insight",
		Subsystem: "pipeline",
		Name:      "stage_total",
		Help:      "Total number of pipeline stage runs, labeled by stage and result.",
	}, []string{"stage", "result"})

	// StageDurationSeconds is the wall time of each stage.
	StageDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "image_insight",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in a pipeline stage.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"})

	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_insight",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by route and status.",
	}, []string{"route", "status"})

	// InFlight is the number of analyses currently running.
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "image_insight",
		Subsystem: "pipeline",
		Name:      "in_flight",
		Help:      "Current number of images being analyzed.",
	})

	// RateLimitedTotal counts requests rejected by the per-client limiter.
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "image_insight",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected with 429.",
	})
)

// Register registers the collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			StageTotal,
			StageDurationSeconds,
			RequestsTotal,
			InFlight,
			RateLimitedTotal,
		)
	})
}

// ObserveStage records one stage run.
func ObserveStage(stage, result string, started time.Time) {
	StageTotal.WithLabelValues(stage, result).Inc()
	if result != ResultDisabled {
		StageDurationSeconds.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}
