package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/webriots/flight"
	"github.com/webriots/flight/metrics"
)

// flightMetrics implements flight.Metrics using Prometheus.
type flightMetrics struct {
	runsStarted  *prometheus.CounterVec
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	unitsStarted *prometheus.CounterVec
	unitDelay    prometheus.Histogram
	inflight     *prometheus.GaugeVec
}

// NewFlightMetrics creates a Prometheus implementation of flight.Metrics.
func NewFlightMetrics(reg prometheus.Registerer) flight.Metrics {
	m := &flightMetrics{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flight_runs_started_total",
			Help: "Total number of fan-outs started",
		}, []string{"variant"}),

		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flight_runs_total",
			Help: "Total number of fan-outs joined",
		}, []string{"variant", "success"}),

		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flight_run_duration_seconds",
			Help:    "Fan-out time from launch to join in seconds",
			Buckets: defaultBuckets,
		}, []string{"variant"}),

		unitsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flight_units_started_total",
			Help: "Total number of units launched",
		}, []string{"variant"}),

		unitDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flight_unit_delay_seconds",
			Help:    "Delay drawn by completed units in seconds",
			Buckets: defaultBuckets,
		}),

		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flight_runs_inflight",
			Help: "Number of fan-outs not yet joined",
		}, []string{"variant"}),
	}

	reg.MustRegister(
		m.runsStarted,
		m.runsTotal,
		m.runDuration,
		m.unitsStarted,
		m.unitDelay,
		m.inflight,
	)

	return m
}

func (m *flightMetrics) RunStarted(variant string, units int) {
	m.runsStarted.WithLabelValues(variant).Inc()
	m.unitsStarted.WithLabelValues(variant).Add(float64(units))
	m.inflight.WithLabelValues(variant).Inc()
}

func (m *flightMetrics) RunFinished(variant string, success bool) {
	m.runsTotal.WithLabelValues(variant, boolToStr(success)).Inc()
	m.inflight.WithLabelValues(variant).Dec()
}

func (m *flightMetrics) RunDuration(variant string) metrics.Timer {
	return newTimer(m.runDuration.WithLabelValues(variant))
}

func (m *flightMetrics) UnitDelay(d time.Duration) {
	m.unitDelay.Observe(d.Seconds())
}
