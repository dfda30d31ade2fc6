package memo

import "log/slog"

type options struct {
	name    string
	policy  FailurePolicy
	logger  *slog.Logger
	metrics Metrics
}

func newOptions(opts []Option) options {
	o := options{
		name:    "memo",
		policy:  ResetOnFailure,
		logger:  slog.New(slog.DiscardHandler),
		metrics: NopMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Cache or a Keyed cache.
type Option func(*options)

// WithName names the cache in logs, metrics and errors.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithFailurePolicy sets what a failed computation leaves behind.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger for cache events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
