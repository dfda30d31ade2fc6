package flight

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Collect runs a single unit that n times sleeps for interval and then
// draws a value uniformly from [0, maxValue). The values are returned
// in the order they were produced.
func (s *Scheduler) Collect(ctx context.Context, n int, interval time.Duration, maxValue float64) ([]float64, error) {
	if err := validateCollect(1, n, interval, maxValue); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := s.begin(ctx, variantCollect, 1, interval)

	var (
		values []float64
		err    error
	)
	s.schedule().Run(func(_ context.Context, task *Task[time.Duration, error]) {
		values, err = s.collect(task, 0, n, interval, maxValue)
	}).Resume(ctx)

	done(err)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// MeasureRuntime runs parallel Collect units side by side on one loop
// and returns the wall time until the last of them finished. Because
// the units sleep concurrently the result is close to n*interval
// rather than parallel*n*interval.
func (s *Scheduler) MeasureRuntime(ctx context.Context, parallel, n int, interval time.Duration, maxValue float64) (time.Duration, error) {
	if err := validateCollect(parallel, n, interval, maxValue); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	done := s.begin(ctx, variantRuntime, parallel, interval)
	start := s.clock.Now()

	var err error
	s.schedule().Run(func(_ context.Context, task *Task[time.Duration, error]) {
		g := task.Group()
		for i := range parallel {
			g.Go(func(ctx context.Context) error {
				unit, _ := TaskFromContext[time.Duration, error](ctx)
				_, err := s.collect(unit, i, n, interval, maxValue)
				return err
			})
		}
		err = g.Wait(task)
	}).Resume(ctx)

	elapsed := s.clock.Now().Sub(start)
	done(err)
	if err != nil {
		return 0, err
	}
	return elapsed, nil
}

func (s *Scheduler) collect(task *Task[time.Duration, error], index, n int, interval time.Duration, maxValue float64) (values []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			values, err = nil, &UnitError{Index: index, ID: uuid.Nil, Err: &PanicError{Value: r}}
		}
	}()

	values = make([]float64, 0, n)
	for range n {
		if err := task.Await(interval); err != nil {
			return nil, &UnitError{Index: index, Err: err}
		}
		values = append(values, UniformFloat(s.source, maxValue))
	}
	return values, nil
}

func validateCollect(parallel, n int, interval time.Duration, maxValue float64) error {
	switch {
	case parallel < 0:
		return fmt.Errorf("%w: negative parallelism %d", ErrInvalidArgument, parallel)
	case n < 0:
		return fmt.Errorf("%w: negative value count %d", ErrInvalidArgument, n)
	case interval < 0:
		return fmt.Errorf("%w: negative interval %v", ErrInvalidArgument, interval)
	case !(maxValue >= 0) || math.IsInf(maxValue, 1):
		return fmt.Errorf("%w: max value %v", ErrInvalidArgument, maxValue)
	}
	return nil
}
