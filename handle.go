package flight

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Handle is one unit of a launched fan-out. It can be cancelled on its
// own, from any goroutine, before it completes. Cancelling a unit
// fails the whole join.
type Handle struct {
	id     uuid.UUID
	index  int
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}
	delay  time.Duration
	err    error
}

// ID returns the unique id of the unit.
func (h *Handle) ID() uuid.UUID { return h.id }

// Index returns the launch position of the unit.
func (h *Handle) Index() int { return h.index }

// Cancel asks the unit to stop. The unit fails with ErrCancelled unless
// it has already completed.
func (h *Handle) Cancel() { h.cancel(ErrCancelled) }

// Done is closed once the unit has completed or failed.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result waits for the unit and returns its delay and error.
func (h *Handle) Result() (time.Duration, error) {
	<-h.done
	return h.delay, h.err
}

func (h *Handle) finish(d time.Duration, err error) {
	h.delay, h.err = d, err
	close(h.done)
}

// Join is a fan-out running in the background.
type Join struct {
	handles []*Handle
	cancel  context.CancelCauseFunc
	done    chan struct{}
	delays  []time.Duration
	err     error
}

// Handles returns the units of the join in launch order. After a
// failed join the handles still report what each unit did.
func (j *Join) Handles() []*Handle { return slices.Clone(j.handles) }

// Cancel signals every unfinished unit.
func (j *Join) Cancel() { j.cancel(ErrCancelled) }

// Done is closed when every unit has finished.
func (j *Join) Done() <-chan struct{} { return j.done }

// Wait blocks until every unit has finished and returns the delays
// sorted ascending, or the first unit failure.
func (j *Join) Wait() ([]time.Duration, error) {
	<-j.done
	if j.err != nil {
		return nil, j.err
	}
	return slices.Clone(j.delays), nil
}

// Launch starts count units wrapped in Handles and returns without
// waiting for them. The handles exist before any unit runs, so callers
// may cancel them at any point. Cancelling ctx signals every unit.
func (s *Scheduler) Launch(ctx context.Context, count int, maxDelay time.Duration) (*Join, error) {
	if err := validateFanOut(count, maxDelay); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jctx, cancel := context.WithCancelCause(ctx)
	j := &Join{
		handles: make([]*Handle, count),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for i := range j.handles {
		hctx, hcancel := context.WithCancelCause(jctx)
		j.handles[i] = &Handle{
			id:     uuid.New(),
			index:  i,
			ctx:    hctx,
			cancel: hcancel,
			done:   make(chan struct{}),
		}
	}

	done := s.begin(ctx, variantTasks, count, maxDelay)

	go func() {
		defer close(j.done)
		defer cancel(nil)

		j.err = s.join(jctx, j.handles, maxDelay)
		done(j.err)
		if j.err != nil {
			return
		}

		j.delays = make([]time.Duration, len(j.handles))
		for i, h := range j.handles {
			j.delays[i] = h.delay
		}
		slices.Sort(j.delays)
	}()

	return j, nil
}

// join runs one child task per handle. A failed unit cancels the group
// context, which in turn cancels every sibling handle.
func (s *Scheduler) join(ctx context.Context, handles []*Handle, maxDelay time.Duration) (err error) {
	s.schedule().Run(func(_ context.Context, task *Task[time.Duration, error]) {
		g := task.Group()
		gctx := g.Context()

		for _, h := range handles {
			stop := context.AfterFunc(gctx, func() { h.cancel(context.Cause(gctx)) })

			g.GoWithContext(withTaskContext(h.ctx, task), func(ctx context.Context) error {
				defer stop()
				d, err := s.unit(ctx, h.index, h.id, maxDelay)
				h.finish(d, err)
				return err
			})
		}

		err = g.Wait(task)
	}).Resume(ctx)

	return err
}
