package memo

import "github.com/webriots/flight/metrics"

// Metrics receives instrumentation events from caches. name is the
// cache name set with WithName.
type Metrics interface {
	// Hit records a Get answered from a Ready or Failed entry.
	Hit(name string)
	// Miss records a Get that started a computation.
	Miss(name string)
	// Joined records a Get that waited on a computation already in
	// flight.
	Joined(name string)
	// ComputeDuration times one computation.
	ComputeDuration(name string) metrics.Timer
	// ComputeFailed records a computation that returned an error or
	// panicked.
	ComputeFailed(name string)
}

type nopMetrics struct{}

// NopMetrics returns a Metrics implementation that discards all events.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) Hit(string)                           {}
func (nopMetrics) Miss(string)                          {}
func (nopMetrics) Joined(string)                        {}
func (nopMetrics) ComputeDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) ComputeFailed(string)                 {}
