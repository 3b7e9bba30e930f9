// Package metricsvc exports registry reconciliation metrics to Prometheus.
package metricsvc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/bursar/core/registry"
)

const namespace = "bursar"

type Metrics struct {
	reloads        *prometheus.CounterVec
	reloadDuration *prometheus.HistogramVec
	staleReloads   *prometheus.CounterVec
	changeEvents   *prometheus.CounterVec
}

var _ registry.Metrics = (*Metrics)(nil)

// New creates the registry metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "reloads_total",
			Help:      "Snapshot reloads by collection and result.",
		}, []string{"collection", "result"}),
		reloadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "reload_duration_seconds",
			Help:      "Time taken to fetch a collection.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
		staleReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "stale_reloads_total",
			Help:      "Fetched snapshots dropped because a newer reload was applied first.",
		}, []string{"collection"}),
		changeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "change_events_total",
			Help:      "Change events received from the database.",
		}, []string{"collection"}),
	}

	for _, c := range []prometheus.Collector{m.reloads, m.reloadDuration, m.staleReloads, m.changeEvents} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveReload(collection string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reloads.WithLabelValues(collection, result).Inc()
	m.reloadDuration.WithLabelValues(collection).Observe(took.Seconds())
}

func (m *Metrics) IncStaleReload(collection string) {
	m.staleReloads.WithLabelValues(collection).Inc()
}

func (m *Metrics) IncChangeEvent(collection string) {
	m.changeEvents.WithLabelValues(collection).Inc()
}
