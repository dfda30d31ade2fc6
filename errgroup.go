package flight

import "context"

// ErrGroup runs child tasks and keeps the first error one of them
// returns. The first error also cancels the group context, with the
// error as its cause, so siblings can stop early.
type ErrGroup interface {
	// Go starts a child task with the group context.
	Go(func(context.Context) error)
	// GoWithContext starts a child task with ctx, which must belong to
	// the task that created the group.
	GoWithContext(context.Context, func(context.Context) error)
	// Context returns the group context.
	Context() context.Context
	// Wait parks task until every child has returned and reports the
	// first error.
	Wait(TaskBase) error
}

type errGroup struct {
	task   TaskBase
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     WaitGroup
	err    error
}

func newErrGroup(task TaskBase) *errGroup {
	ctx, cancel := context.WithCancelCause(task.Context())
	return &errGroup{task: task, ctx: ctx, cancel: cancel}
}

func (g *errGroup) Go(f func(context.Context) error) {
	g.spawn(g.ctx, f)
}

func (g *errGroup) GoWithContext(ctx context.Context, f func(context.Context) error) {
	if task := MustTaskBaseFromContext(ctx); task != g.task {
		panic("flight: context task does not match group task")
	}
	g.spawn(ctx, f)
}

func (g *errGroup) Context() context.Context {
	return g.ctx
}

func (g *errGroup) spawn(ctx context.Context, f func(context.Context) error) {
	g.wg.Add(1)
	g.task.spawn(ctx, func(ctx context.Context) {
		defer g.wg.Done()
		if err := f(ctx); err != nil && g.err == nil {
			g.err = err
			g.cancel(err)
		}
	})
}

func (g *errGroup) Wait(task TaskBase) error {
	g.wg.Wait(task)
	g.cancel(g.err)
	return g.err
}
