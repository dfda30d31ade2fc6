package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/webriots/flight/memo"
	"github.com/webriots/flight/metrics"
)

// memoMetrics implements memo.Metrics using Prometheus.
type memoMetrics struct {
	requestsTotal   *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	failuresTotal   *prometheus.CounterVec
}

// NewMemoMetrics creates a Prometheus implementation of memo.Metrics.
// Requests are counted per cache with an outcome label of hit, miss or
// joined.
func NewMemoMetrics(reg prometheus.Registerer) memo.Metrics {
	m := &memoMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flight_memo_requests_total",
			Help: "Total number of cache requests by outcome",
		}, []string{"cache", "outcome"}),

		computeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flight_memo_compute_duration_seconds",
			Help:    "Memoized computation time in seconds",
			Buckets: defaultBuckets,
		}, []string{"cache"}),

		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flight_memo_compute_failures_total",
			Help: "Total number of failed memoized computations",
		}, []string{"cache"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.computeDuration,
		m.failuresTotal,
	)

	return m
}

func (m *memoMetrics) Hit(name string) {
	m.requestsTotal.WithLabelValues(name, "hit").Inc()
}

func (m *memoMetrics) Miss(name string) {
	m.requestsTotal.WithLabelValues(name, "miss").Inc()
}

func (m *memoMetrics) Joined(name string) {
	m.requestsTotal.WithLabelValues(name, "joined").Inc()
}

func (m *memoMetrics) ComputeDuration(name string) metrics.Timer {
	return newTimer(m.computeDuration.WithLabelValues(name))
}

func (m *memoMetrics) ComputeFailed(name string) {
	m.failuresTotal.WithLabelValues(name).Inc()
}
