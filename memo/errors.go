package memo

import (
	"context"
	"errors"
	"fmt"

	"github.com/webriots/flight"
)

// ErrComputationFailed matches every ComputationError.
var ErrComputationFailed = errors.New("memo: computation failed")

// ComputationError is returned to every caller of a failed computation.
// Key is the cache name for a Cache and the entry key for a Keyed
// cache.
type ComputationError struct {
	Key string
	Err error
}

func (e *ComputationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("memo: computation failed: %v", e.Err)
	}
	return fmt.Sprintf("memo: computation %q failed: %v", e.Key, e.Err)
}

// Unwrap lets errors.Is match both ErrComputationFailed and the cause.
func (e *ComputationError) Unwrap() []error {
	return []error{ErrComputationFailed, e.Err}
}

// invoke calls fn and turns a panic into a *flight.PanicError. Keyed
// computations run on a goroutine of their own where an unrecovered
// panic would take the process down.
func invoke[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var z T
			v, err = z, &flight.PanicError{Value: r}
		}
	}()
	return fn(ctx)
}
