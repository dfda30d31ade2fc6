package flight

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// instant resolves every sleep immediately, optionally failing the
// request whose delay matches fail.
type instant struct {
	fail    time.Duration
	failErr error
	seen    atomic.Int64
}

func (d *instant) Dispatch(
	_ context.Context,
	reqs []*Request[time.Duration, error],
	out chan<- *Batch[time.Duration, error],
) {
	for _, req := range reqs {
		go func() {
			d.seen.Add(1)
			batch := NewBatch(req)
			if d.failErr != nil && req.Data() == d.fail {
				batch.Resolve(0, d.failErr)
			} else {
				batch.Resolve(0, nil)
			}
			out <- batch
		}()
	}
}

// sequence hands out the given values in order, wrapping around.
type sequence struct {
	mu     sync.Mutex
	values []int64
	next   int
}

func (s *sequence) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

func (s *sequence) Float64() float64 { return 0.5 }

type panicking struct{}

func (panicking) Int64N(int64) int64 { panic("no entropy") }
func (panicking) Float64() float64   { panic("no entropy") }

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func TestRunSortedWithinBounds(t *testing.T) {
	r := require.New(t)

	const maxDelay = 20 * time.Millisecond
	delays, err := New().Run(context.Background(), 25, maxDelay)
	r.NoError(err)
	r.Len(delays, 25)
	r.True(slices.IsSorted(delays))
	for _, d := range delays {
		r.GreaterOrEqual(d, time.Duration(0))
		r.Less(d, maxDelay)
	}
}

func TestRunSortsByValue(t *testing.T) {
	r := require.New(t)

	src := &sequence{values: []int64{50, 10, 40, 20, 30, 10}}
	delays, err := New(WithSource(src), WithDispatcher(new(instant))).Run(context.Background(), 6, 100)
	r.NoError(err)
	r.Equal([]time.Duration{10, 10, 20, 30, 40, 50}, delays)
}

func TestRunZeroCount(t *testing.T) {
	delays, err := New().Run(context.Background(), 0, time.Second)
	require.NoError(t, err)
	require.Empty(t, delays)
}

func TestRunZeroMaxDelay(t *testing.T) {
	delays, err := New().Run(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{0, 0, 0, 0, 0}, delays)
}

func TestRunInvalidArgument(t *testing.T) {
	r := require.New(t)
	s := New()

	_, err := s.Run(context.Background(), -1, time.Second)
	r.ErrorIs(err, ErrInvalidArgument)

	_, err = s.Run(context.Background(), 1, -time.Second)
	r.ErrorIs(err, ErrInvalidArgument)
}

func TestRunUnitFailureFailsJoin(t *testing.T) {
	r := require.New(t)

	boom := errors.New("boom")
	src := &sequence{values: []int64{1, 2, 3, 4}}
	d := &instant{fail: 3, failErr: boom}

	delays, err := New(WithSource(src), WithDispatcher(d)).Run(context.Background(), 4, 10)
	r.Nil(delays)
	r.ErrorIs(err, ErrUnitFailed)
	r.ErrorIs(err, boom)

	var ue *UnitError
	r.ErrorAs(err, &ue)
	r.Equal(2, ue.Index)
}

func TestRunUnitPanicFailsJoin(t *testing.T) {
	r := require.New(t)

	_, err := New(WithSource(panicking{})).Run(context.Background(), 3, time.Second)
	r.ErrorIs(err, ErrUnitFailed)

	var pe *PanicError
	r.ErrorAs(err, &pe)
	r.Equal("no entropy", pe.Value)
}

func TestRunCancelled(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New().Run(ctx, 5, time.Hour)
	r.ErrorIs(err, ErrUnitFailed)
	r.ErrorIs(err, context.DeadlineExceeded)
	r.Less(time.Since(start), 10*time.Second)

	_, err = New().Run(ctx, 0, 0)
	r.ErrorIs(err, context.DeadlineExceeded)
}

func TestRunSeededSourceIsRepeatable(t *testing.T) {
	r := require.New(t)

	run := func() []time.Duration {
		src := NewLockedSource(rand.New(rand.NewPCG(1, 2)))
		delays, err := New(WithSource(src), WithDispatcher(new(instant))).Run(context.Background(), 10, time.Second)
		r.NoError(err)
		return delays
	}

	r.Equal(run(), run())
}

func TestMeasureAverageConcurrent(t *testing.T) {
	r := require.New(t)

	const maxDelay = 100 * time.Millisecond
	avg, err := New().MeasureAverage(context.Background(), 10, maxDelay)
	r.NoError(err)
	r.Greater(avg, time.Duration(0))
	r.Less(avg, maxDelay)
}

func TestMeasureAverageUsesClock(t *testing.T) {
	r := require.New(t)

	clock := &stepClock{now: time.Unix(0, 0), step: time.Second}
	avg, err := New(WithClock(clock), WithDispatcher(new(instant))).MeasureAverage(context.Background(), 4, time.Second)
	r.NoError(err)
	r.Equal(250*time.Millisecond, avg)
}

func TestMeasureAverageZeroCount(t *testing.T) {
	_, err := New().MeasureAverage(context.Background(), 0, time.Second)
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestMeasureAverageInvalidArgument(t *testing.T) {
	_, err := New().MeasureAverage(context.Background(), -3, time.Second)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRunConcurrentCalls(t *testing.T) {
	r := require.New(t)
	s := New()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			delays, err := s.Run(context.Background(), 10, 5*time.Millisecond)
			if err == nil && len(delays) != 10 {
				err = errors.New("short result")
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		r.NoError(err)
	}
}
