package flight

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	variantRun     = "run"
	variantTasks   = "tasks"
	variantCollect = "collect"
	variantRuntime = "runtime"
)

// Scheduler fans out independently delayed units onto a fresh loop per
// call and joins them. It keeps no state between calls and is safe for
// concurrent use as long as its Source and Dispatcher are.
type Scheduler struct {
	source   Source
	clock    Clock
	dispatch Dispatcher[time.Duration, error]
	logger   *slog.Logger
	metrics  Metrics
}

// New creates a Scheduler. Without options it draws from the global
// random generator, sleeps with an unlimited TimerDispatch and neither
// logs nor records metrics.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   DefaultSource(),
		clock:    SystemClock(),
		dispatch: NewTimerDispatch(),
		logger:   slog.New(slog.DiscardHandler),
		metrics:  NopMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run launches count units. Each draws a delay uniformly from
// [0, maxDelay), sleeps for it without holding up its siblings and
// yields the delay. Run waits for every unit and returns the delays
// sorted ascending. If any unit fails the whole call fails and no
// delays are returned.
func (s *Scheduler) Run(ctx context.Context, count int, maxDelay time.Duration) ([]time.Duration, error) {
	if err := validateFanOut(count, maxDelay); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := s.begin(ctx, variantRun, count, maxDelay)

	delays := make([]time.Duration, count)
	var err error

	s.schedule().Run(func(_ context.Context, task *Task[time.Duration, error]) {
		g := task.Group()
		for i := range count {
			g.Go(func(ctx context.Context) error {
				d, err := s.unit(ctx, i, uuid.Nil, maxDelay)
				delays[i] = d
				return err
			})
		}
		err = g.Wait(task)
	}).Resume(ctx)

	done(err)
	if err != nil {
		return nil, err
	}

	slices.Sort(delays)
	return delays, nil
}

// RunAsTasks behaves like Run but wraps every unit in a cancellable
// Handle before joining. When ctx is cancelled all unfinished units
// are signalled before RunAsTasks returns.
func (s *Scheduler) RunAsTasks(ctx context.Context, count int, maxDelay time.Duration) ([]time.Duration, error) {
	j, err := s.Launch(ctx, count, maxDelay)
	if err != nil {
		return nil, err
	}
	return j.Wait()
}

// MeasureAverage times Run(ctx, count, maxDelay) on the scheduler's
// clock and returns the elapsed time divided by count. With units
// running concurrently the average stays well below maxDelay.
func (s *Scheduler) MeasureAverage(ctx context.Context, count int, maxDelay time.Duration) (time.Duration, error) {
	if count == 0 {
		return 0, fmt.Errorf("%w: average over zero units", ErrArithmetic)
	}

	start := s.clock.Now()
	if _, err := s.Run(ctx, count, maxDelay); err != nil {
		return 0, err
	}
	elapsed := s.clock.Now().Sub(start)

	return elapsed / time.Duration(count), nil
}

// unit draws one delay and sleeps for it. It must run inside a task of
// a Scheduler loop.
func (s *Scheduler) unit(ctx context.Context, index int, id uuid.UUID, maxDelay time.Duration) (d time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = 0, &UnitError{Index: index, ID: id, Err: &PanicError{Value: r}}
		}
		if err != nil {
			s.logger.DebugContext(ctx, "unit failed", "index", index, "error", err)
		}
	}()

	task, ok := TaskFromContext[time.Duration, error](ctx)
	if !ok {
		panic("flight: unit started outside of a scheduler task")
	}

	d = Uniform(s.source, maxDelay)
	if err := task.Await(d); err != nil {
		return d, &UnitError{Index: index, ID: id, Err: err}
	}

	s.metrics.UnitDelay(d)
	return d, nil
}

func (s *Scheduler) schedule() *Schedule[time.Duration, error] {
	return NewSchedule(s.dispatch)
}

// begin records the start of a fan-out and returns the function that
// records its end.
func (s *Scheduler) begin(ctx context.Context, variant string, count int, maxDelay time.Duration) func(error) {
	s.logger.DebugContext(ctx, "fan-out started", "variant", variant, "count", count, "max_delay", maxDelay)
	s.metrics.RunStarted(variant, count)
	timer := s.metrics.RunDuration(variant)

	return func(err error) {
		timer.ObserveDuration()
		s.metrics.RunFinished(variant, err == nil)
		if err != nil {
			s.logger.DebugContext(ctx, "fan-out failed", "variant", variant, "count", count, "error", err)
			return
		}
		s.logger.DebugContext(ctx, "fan-out joined", "variant", variant, "count", count)
	}
}

func validateFanOut(count int, maxDelay time.Duration) error {
	if count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidArgument, count)
	}
	if maxDelay < 0 {
		return fmt.Errorf("%w: negative max delay %v", ErrInvalidArgument, maxDelay)
	}
	return nil
}
