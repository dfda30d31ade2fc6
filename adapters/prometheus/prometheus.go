// Package prometheus provides Prometheus implementations of the
// flight and memo metrics interfaces.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/webriots/flight/metrics"
)

// timer wraps a Prometheus histogram to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// AllMetrics holds the Prometheus implementations for the scheduler
// and the caches.
type AllMetrics struct {
	Flight *flightMetrics
	Memo   *memoMetrics
}

// NewAllMetrics registers the scheduler and cache metrics on reg.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Flight: NewFlightMetrics(reg).(*flightMetrics),
		Memo:   NewMemoMetrics(reg).(*memoMetrics),
	}
}

func boolToStr(b bool) string {
	return strconv.FormatBool(b)
}
