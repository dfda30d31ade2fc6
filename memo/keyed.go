package memo

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Keyed memoizes a computation per key. Every key has its own entry
// with the same lifecycle as a Cache; entries are created on first use.
// The zero value is not usable; create one with NewKeyed.
type Keyed[V any] struct {
	fn    func(context.Context, string) (V, error)
	opts  options
	group singleflight.Group

	mu      sync.RWMutex
	ready   map[string]V
	failed  map[string]error
	running map[string]struct{}
	waiters map[string]int
	runs    map[string]int
}

// NewKeyed creates an empty keyed cache for fn.
func NewKeyed[V any](fn func(ctx context.Context, key string) (V, error), opts ...Option) *Keyed[V] {
	return &Keyed[V]{
		fn:      fn,
		opts:    newOptions(opts),
		ready:   make(map[string]V),
		failed:  make(map[string]error),
		running: make(map[string]struct{}),
		waiters: make(map[string]int),
		runs:    make(map[string]int),
	}
}

// Get returns the memoized value for key, computing it first if the
// entry is Empty. It behaves like Cache.Get per key.
func (k *Keyed[V]) Get(ctx context.Context, key string) (V, error) {
	if v, err, ok := k.lookup(key); ok {
		k.opts.metrics.Hit(k.opts.name)
		return v, err
	}

	k.mu.RLock()
	_, joined := k.running[key]
	k.mu.RUnlock()

	if joined {
		k.opts.metrics.Joined(k.opts.name)
		k.opts.logger.DebugContext(ctx, "cache join", "cache", k.opts.name, "key", key)
	}

	ch := k.group.DoChan(key, func() (any, error) {
		return k.load(context.WithoutCancel(ctx), key)
	})

	// counted only once attached to the flight
	k.mu.Lock()
	k.waiters[key]++
	k.mu.Unlock()

	defer func() {
		k.mu.Lock()
		if k.waiters[key]--; k.waiters[key] == 0 {
			delete(k.waiters, key)
		}
		k.mu.Unlock()
	}()

	select {
	case res := <-ch:
		if res.Err != nil {
			var z V
			return z, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		var z V
		return z, ctx.Err()
	}
}

// State returns the current state of the entry for key.
func (k *Keyed[V]) State(key string) State {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if _, ok := k.ready[key]; ok {
		return Ready
	}
	if _, ok := k.failed[key]; ok {
		return Failed
	}
	if _, ok := k.running[key]; ok {
		return InFlight
	}
	return Empty
}

// Waiters returns the number of callers blocked in Get for key.
func (k *Keyed[V]) Waiters(key string) int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.waiters[key]
}

// Computations returns how many times the computation has been started
// for key.
func (k *Keyed[V]) Computations(key string) int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.runs[key]
}

// Len returns the number of Ready entries.
func (k *Keyed[V]) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.ready)
}

func (k *Keyed[V]) lookup(key string) (V, error, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if v, ok := k.ready[key]; ok {
		return v, nil, true
	}
	if err, ok := k.failed[key]; ok {
		var z V
		return z, err, true
	}
	var z V
	return z, nil, false
}

// load runs inside the flight for key. A caller that missed the store
// can start a flight after the previous one for the same key finished,
// so the store is checked again before computing.
func (k *Keyed[V]) load(ctx context.Context, key string) (any, error) {
	k.mu.Lock()
	if v, ok := k.ready[key]; ok {
		k.mu.Unlock()
		return v, nil
	}
	if err, ok := k.failed[key]; ok {
		k.mu.Unlock()
		return nil, err
	}
	k.running[key] = struct{}{}
	k.runs[key]++
	k.mu.Unlock()

	k.opts.metrics.Miss(k.opts.name)
	k.opts.logger.DebugContext(ctx, "cache miss", "cache", k.opts.name, "key", key)

	timer := k.opts.metrics.ComputeDuration(k.opts.name)
	v, err := invoke(ctx, func(ctx context.Context) (V, error) { return k.fn(ctx, key) })
	timer.ObserveDuration()

	k.mu.Lock()
	delete(k.running, key)
	if err == nil {
		k.ready[key] = v
	} else {
		err = &ComputationError{Key: key, Err: err}
		if k.opts.policy == RetainFailure {
			k.failed[key] = err
		}
	}
	k.mu.Unlock()

	if err != nil {
		k.opts.metrics.ComputeFailed(k.opts.name)
		k.opts.logger.DebugContext(ctx, "cache computation failed", "cache", k.opts.name, "key", key, "error", err)
		return nil, err
	}
	k.opts.logger.DebugContext(ctx, "cache ready", "cache", k.opts.name, "key", key)
	return v, nil
}
