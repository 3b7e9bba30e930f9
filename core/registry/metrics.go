package registry

import "time"

// Metrics receives reconciliation events. See services/metrics.
type Metrics interface {
	ObserveReload(collection string, took time.Duration, err error)
	IncStaleReload(collection string)
	IncChangeEvent(collection string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveReload(string, time.Duration, error) {}
func (nopMetrics) IncStaleReload(string)                      {}
func (nopMetrics) IncChangeEvent(string)                      {}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}
