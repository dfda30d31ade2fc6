package flight

import (
	"log/slog"
	"time"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSource sets the random source units draw their delays from.
func WithSource(src Source) Option {
	return func(s *Scheduler) {
		if src != nil {
			s.source = src
		}
	}
}

// WithClock sets the clock MeasureAverage and MeasureRuntime read.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDispatcher sets the dispatcher that resolves unit sleeps.
func WithDispatcher(d Dispatcher[time.Duration, error]) Option {
	return func(s *Scheduler) {
		if d != nil {
			s.dispatch = d
		}
	}
}

// WithLogger sets the logger for run lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}
