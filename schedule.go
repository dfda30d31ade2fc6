package flight

import (
	"context"
)

const (
	// ScheduleResponseBuffer is the number of completed batches that
	// can queue up while the loop is busy running tasks.
	ScheduleResponseBuffer = 128
)

// Schedule binds a loop to the Dispatcher that resolves its requests.
// A Schedule drives one loop at a time; create one per concurrent
// Resume.
type Schedule[I, O any] struct {
	dispatch  Dispatcher[I, O]
	responses chan *Batch[I, O]
}

// NewSchedule creates a Schedule that resolves requests with dispatch.
func NewSchedule[I, O any](dispatch Dispatcher[I, O]) *Schedule[I, O] {
	return &Schedule[I, O]{
		dispatch:  dispatch,
		responses: make(chan *Batch[I, O], ScheduleResponseBuffer),
	}
}

// Resumable is a root task function waiting to be run on a Schedule.
type Resumable[I, O any] struct {
	fn    func(context.Context, *Task[I, O])
	sched *Schedule[I, O]
}

// Run prepares fn as the root task of a loop.
func (s *Schedule[I, O]) Run(fn func(context.Context, *Task[I, O])) *Resumable[I, O] {
	return &Resumable[I, O]{fn: fn, sched: s}
}

// Go is like Run for root functions that find their task through
// TaskFromContext.
func (s *Schedule[I, O]) Go(fn func(context.Context)) *Resumable[I, O] {
	return s.Run(ignoreTask[I, O](fn))
}

// Resume runs the loop on the calling goroutine and returns once the
// root task and all of its descendants have finished. The loop context
// is cancelled on return.
func (r *Resumable[I, O]) Resume(ctx context.Context) {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loop(rctx, r.fn, r.sched)
}
