package tilecache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache traffic.
type Metrics struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	batches prometheus.Counter
}

// NewMetrics creates the cache counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tuffmap",
			Subsystem: "tilecache",
			Name:      "hits_total",
			Help:      "Lookups answered from an already composited tile.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tuffmap",
			Subsystem: "tilecache",
			Name:      "misses_total",
			Help:      "Lookups for masks outside the generated batch.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tuffmap",
			Subsystem: "tilecache",
			Name:      "batches_total",
			Help:      "Terrain and density pairs composited.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.batches)
	}
	return m
}
