package flight

import (
	"context"
)

// taskContextKey keys the running task in a task context.
type taskContextKey struct{}

func withTaskContext(ctx context.Context, task TaskBase) context.Context {
	return context.WithValue(ctx, taskContextKey{}, task)
}

// TaskFromContext returns the task running with ctx, provided it was
// created by a Schedule with the same request and response types.
func TaskFromContext[I, O any](ctx context.Context) (*Task[I, O], bool) {
	val, ok := ctx.Value(taskContextKey{}).(*Task[I, O])
	return val, ok
}

// TaskBaseFromContext returns the type-erased task running with ctx.
func TaskBaseFromContext(ctx context.Context) (TaskBase, bool) {
	val, ok := ctx.Value(taskContextKey{}).(TaskBase)
	return val, ok
}

// MustTaskBaseFromContext is like TaskBaseFromContext but panics when
// ctx does not belong to a task.
func MustTaskBaseFromContext(ctx context.Context) TaskBase {
	val, ok := TaskBaseFromContext(ctx)
	if !ok {
		panic("flight: task not found in context")
	}
	return val
}
