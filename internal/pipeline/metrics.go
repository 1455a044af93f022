package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	passFull        = "full"
	passIncremental = "incremental"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	passes   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cells    prometheus.Counter
	episodes prometheus.Counter
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tuffmap",
			Subsystem: "pipeline",
			Name:      "passes_total",
			Help:      "Classification passes run, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tuffmap",
			Subsystem: "pipeline",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of classification passes, by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind"}),
		cells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tuffmap",
			Subsystem: "pipeline",
			Name:      "cells_classified_total",
			Help:      "Cells visited by classification passes.",
		}),
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tuffmap",
			Subsystem: "pipeline",
			Name:      "visibility_episodes_total",
			Help:      "Visibility episodes that revealed at least one cell.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.passes, m.duration, m.cells, m.episodes)
	}
	return m
}

func (m *Metrics) observe(kind string, elapsed time.Duration, cells int) {
	m.passes.WithLabelValues(kind).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.cells.Add(float64(cells))
}
