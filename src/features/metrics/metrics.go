// Package metrics exposes Prometheus collectors for the rename pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the process metrics. Register one per process.
type Collector struct {
	events       *prometheus.CounterVec
	renames      prometheus.Counter
	watchTargets prometheus.Gauge
}

// NewCollector registers the collectors on reg and returns them. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshotd_events_total",
			Help: "Creation events processed, by terminal outcome.",
		}, []string{"outcome"}),
		renames: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapshotd_renames_total",
			Help: "Files successfully renamed to their canonical name.",
		}),
		watchTargets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapshotd_watch_targets",
			Help: "Watch targets currently registered.",
		}),
	}
}

// ObserveOutcome counts one resolved event.
func (c *Collector) ObserveOutcome(outcome string) {
	c.events.WithLabelValues(outcome).Inc()
}

// RenameDone counts one successful rename.
func (c *Collector) RenameDone() {
	c.renames.Inc()
}

// SetWatchTargets records how many targets are registered.
func (c *Collector) SetWatchTargets(n int) {
	c.watchTargets.Set(float64(n))
}
