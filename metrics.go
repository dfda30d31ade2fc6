package flight

import (
	"time"

	"github.com/webriots/flight/metrics"
)

// Metrics receives instrumentation events from a Scheduler. variant is
// one of "run", "tasks", "collect" or "runtime".
type Metrics interface {
	// RunStarted records a fan-out of units units.
	RunStarted(variant string, units int)
	// RunFinished records the outcome of a fan-out.
	RunFinished(variant string, success bool)
	// RunDuration times a fan-out from launch to join.
	RunDuration(variant string) metrics.Timer
	// UnitDelay records the delay a unit completed with.
	UnitDelay(d time.Duration)
}

type nopMetrics struct{}

// NopMetrics returns a Metrics implementation that discards all events.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RunStarted(string, int)           {}
func (nopMetrics) RunFinished(string, bool)         {}
func (nopMetrics) RunDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) UnitDelay(time.Duration)          {}
