package flight

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRunAsTasks(t *testing.T) {
	r := require.New(t)

	const maxDelay = 20 * time.Millisecond
	delays, err := New().RunAsTasks(context.Background(), 10, maxDelay)
	r.NoError(err)
	r.Len(delays, 10)
	r.True(slices.IsSorted(delays))
	for _, d := range delays {
		r.Less(d, maxDelay)
	}
}

func TestRunAsTasksEdgeCases(t *testing.T) {
	r := require.New(t)
	s := New()

	delays, err := s.RunAsTasks(context.Background(), 0, time.Second)
	r.NoError(err)
	r.Empty(delays)

	delays, err = s.RunAsTasks(context.Background(), 3, 0)
	r.NoError(err)
	r.Equal([]time.Duration{0, 0, 0}, delays)

	_, err = s.RunAsTasks(context.Background(), -1, 0)
	r.ErrorIs(err, ErrInvalidArgument)
}

func TestLaunchHandles(t *testing.T) {
	r := require.New(t)

	j, err := New().Launch(context.Background(), 4, 10*time.Millisecond)
	r.NoError(err)

	handles := j.Handles()
	r.Len(handles, 4)

	ids := make(map[uuid.UUID]bool)
	for i, h := range handles {
		r.Equal(i, h.Index())
		r.NotEqual(uuid.Nil, h.ID())
		ids[h.ID()] = true
	}
	r.Len(ids, 4)

	delays, err := j.Wait()
	r.NoError(err)

	var fromHandles []time.Duration
	for _, h := range handles {
		d, err := h.Result()
		r.NoError(err)
		fromHandles = append(fromHandles, d)
	}
	slices.Sort(fromHandles)
	r.Equal(delays, fromHandles)
}

func TestLaunchCancelOneHandle(t *testing.T) {
	r := require.New(t)

	j, err := New().Launch(context.Background(), 5, time.Hour)
	r.NoError(err)

	start := time.Now()
	cancelled := j.Handles()[2]
	cancelled.Cancel()

	_, err = j.Wait()
	r.ErrorIs(err, ErrUnitFailed)
	r.ErrorIs(err, ErrCancelled)
	r.Less(time.Since(start), 10*time.Second)

	var ue *UnitError
	r.ErrorAs(err, &ue)
	r.Equal(2, ue.Index)
	r.Equal(cancelled.ID(), ue.ID)

	for _, h := range j.Handles() {
		select {
		case <-h.Done():
		default:
			r.Fail("handle not done after join", "index %d", h.Index())
		}
		_, err := h.Result()
		r.Error(err)
	}
}

func TestLaunchCancelContext(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	j, err := New().Launch(ctx, 5, time.Hour)
	r.NoError(err)

	cancel()

	_, err = j.Wait()
	r.ErrorIs(err, context.Canceled)

	for _, h := range j.Handles() {
		_, err := h.Result()
		r.ErrorIs(err, ErrUnitFailed)
		r.Error(h.ctx.Err())
	}
}

func TestJoinCancel(t *testing.T) {
	r := require.New(t)

	j, err := New().Launch(context.Background(), 3, time.Hour)
	r.NoError(err)

	j.Cancel()
	<-j.Done()

	_, err = j.Wait()
	r.ErrorIs(err, ErrCancelled)
}

func TestHandleCancelAfterCompletion(t *testing.T) {
	r := require.New(t)

	j, err := New().Launch(context.Background(), 2, 0)
	r.NoError(err)

	delays, err := j.Wait()
	r.NoError(err)
	r.Equal([]time.Duration{0, 0}, delays)

	for _, h := range j.Handles() {
		h.Cancel()
		d, err := h.Result()
		r.NoError(err)
		r.Zero(d)
	}
}

func TestLaunchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Launch(ctx, 1, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
