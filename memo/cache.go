package memo

import (
	"context"
	"sync"
)

// Cache memoizes a single computation. The zero value is not usable;
// create one with New.
type Cache[T any] struct {
	fn   func(context.Context) (T, error)
	opts options

	mu      sync.Mutex
	state   State
	value   T
	err     error
	flight  *call[T]
	waiters int
	runs    int
}

// call is one run of the computation. val and err are written before
// done is closed and never afterwards.
type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// New creates an Empty cache for fn.
func New[T any](fn func(context.Context) (T, error), opts ...Option) *Cache[T] {
	return &Cache[T]{fn: fn, opts: newOptions(opts)}
}

// Get returns the memoized value, computing it first if the cache is
// Empty.
//
// The computation runs on its own goroutine with the context of the
// caller that started it, stripped of its cancellation, so a caller
// giving up does not abort a computation other callers wait for. Every
// caller, including the one that started the computation, waits for it
// until its own ctx ends, in which case Get returns ctx.Err().
//
// A failed computation returns a *ComputationError to every caller
// waiting on it.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()

	switch c.state {
	case Ready:
		v := c.value
		c.mu.Unlock()
		c.opts.metrics.Hit(c.opts.name)
		return v, nil

	case Failed:
		err := c.err
		c.mu.Unlock()
		c.opts.metrics.Hit(c.opts.name)
		var z T
		return z, err

	case InFlight:
		f := c.flight
		c.waiters++
		c.mu.Unlock()
		c.opts.metrics.Joined(c.opts.name)
		c.opts.logger.DebugContext(ctx, "cache join", "cache", c.opts.name)
		return c.wait(ctx, f)
	}

	f := &call[T]{done: make(chan struct{})}
	c.flight = f
	c.state = InFlight
	c.runs++
	c.waiters++
	c.mu.Unlock()

	c.opts.metrics.Miss(c.opts.name)
	c.opts.logger.DebugContext(ctx, "cache miss", "cache", c.opts.name)

	go c.compute(context.WithoutCancel(ctx), f)

	return c.wait(ctx, f)
}

// State returns the current state of the entry.
func (c *Cache[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Waiters returns the number of callers blocked in Get.
func (c *Cache[T]) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters
}

// Computations returns how many times the computation has been started.
func (c *Cache[T]) Computations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func (c *Cache[T]) compute(ctx context.Context, f *call[T]) {
	timer := c.opts.metrics.ComputeDuration(c.opts.name)
	v, err := invoke(ctx, c.fn)
	timer.ObserveDuration()

	c.mu.Lock()
	if err == nil {
		c.state, c.value = Ready, v
		f.val = v
	} else {
		err = &ComputationError{Key: c.opts.name, Err: err}
		f.err = err
		if c.opts.policy == RetainFailure {
			c.state, c.err = Failed, err
		} else {
			c.state = Empty
		}
	}
	c.flight = nil
	c.mu.Unlock()

	close(f.done)

	if err != nil {
		c.opts.metrics.ComputeFailed(c.opts.name)
		c.opts.logger.DebugContext(ctx, "cache computation failed", "cache", c.opts.name, "error", err)
		return
	}
	c.opts.logger.DebugContext(ctx, "cache ready", "cache", c.opts.name)
}

func (c *Cache[T]) wait(ctx context.Context, f *call[T]) (T, error) {
	defer func() {
		c.mu.Lock()
		c.waiters--
		c.mu.Unlock()
	}()

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var z T
		return z, ctx.Err()
	}
}
