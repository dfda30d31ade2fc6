package flight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTimerDispatchSleeps(t *testing.T) {
	r := require.New(t)

	var got error = errors.New("unset")
	start := time.Now()
	NewSchedule[time.Duration, error](NewTimerDispatch()).Go(func(ctx context.Context) {
		task, _ := TaskFromContext[time.Duration, error](ctx)
		got = task.Await(15 * time.Millisecond)
	}).Resume(context.Background())

	r.NoError(got)
	r.GreaterOrEqual(time.Since(start), 15*time.Millisecond)
}

func TestTimerDispatchCause(t *testing.T) {
	r := require.New(t)

	cause := errors.New("stop")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	var got error
	NewSchedule[time.Duration, error](NewTimerDispatch()).Go(func(ctx context.Context) {
		task, _ := TaskFromContext[time.Duration, error](ctx)
		got = task.Await(0)
	}).Resume(ctx)

	r.ErrorIs(got, cause)
}

func TestTimerDispatchConcurrencyLimit(t *testing.T) {
	r := require.New(t)

	d := NewTimerDispatch(WithConcurrencyLimit(2))
	r.Equal(2, cap(d.slots))

	start := time.Now()
	delays, err := New(WithDispatcher(d), WithSource(fixedFloat(0))).Run(context.Background(), 6, 10*time.Millisecond)
	r.NoError(err)
	r.Len(delays, 6)
	// six sleeps of ~10ms, two at a time
	r.GreaterOrEqual(time.Since(start), 29*time.Millisecond)

	r.Nil(NewTimerDispatch(WithConcurrencyLimit(0)).slots)
}

func TestTimerDispatchRate(t *testing.T) {
	r := require.New(t)

	d := NewTimerDispatch(WithDispatchRate(rate.Limit(100), 1))
	r.NotNil(d.limiter)

	start := time.Now()
	_, err := New(WithDispatcher(d)).Run(context.Background(), 5, 0)
	r.NoError(err)
	// burst of one, then four more at 10ms intervals
	r.GreaterOrEqual(time.Since(start), 35*time.Millisecond)

	r.Nil(NewTimerDispatch(WithDispatchRate(0, 1)).limiter)
}
