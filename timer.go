package flight

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TimerDispatch resolves duration requests by sleeping. Every request
// sleeps on its own goroutine and resolves with nil once its duration
// has elapsed, or with the cause of the requesting task's context if
// that ends first. A TimerDispatch is safe for concurrent use by
// several loops.
type TimerDispatch struct {
	slots   chan struct{}
	limiter *rate.Limiter
}

var _ Dispatcher[time.Duration, error] = (*TimerDispatch)(nil)

// TimerOption configures a TimerDispatch.
type TimerOption func(*TimerDispatch)

// WithConcurrencyLimit caps the number of requests sleeping at the same
// time. Requests over the limit queue until a slot frees up. A limit
// of zero or less means no cap, which is the default.
func WithConcurrencyLimit(n int) TimerOption {
	return func(d *TimerDispatch) {
		if n > 0 {
			d.slots = make(chan struct{}, n)
		} else {
			d.slots = nil
		}
	}
}

// WithDispatchRate paces the start of sleeps to limit per second with
// the given burst. A non-positive limit disables pacing.
func WithDispatchRate(limit rate.Limit, burst int) TimerOption {
	return func(d *TimerDispatch) {
		if limit <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(limit, max(burst, 1))
	}
}

// NewTimerDispatch creates a TimerDispatch.
func NewTimerDispatch(opts ...TimerOption) *TimerDispatch {
	d := new(TimerDispatch)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch implements Dispatcher.
func (d *TimerDispatch) Dispatch(
	_ context.Context,
	reqs []*Request[time.Duration, error],
	out chan<- *Batch[time.Duration, error],
) {
	for _, req := range reqs {
		go func() {
			batch := NewBatch(req)
			batch.Resolve(0, d.sleep(req.Context(), req.Data()))
			out <- batch
		}()
	}
}

func (d *TimerDispatch) sleep(ctx context.Context, dur time.Duration) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return err
		}
	}

	if d.slots != nil {
		select {
		case d.slots <- struct{}{}:
			defer func() { <-d.slots }()
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}

	if dur <= 0 {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return nil
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
