package flight

import (
	"context"
	"fmt"
)

// Dispatcher resolves the requests that suspended tasks are waiting
// on. The loop calls Dispatch from its own goroutine, so
// implementations must not block: work happens asynchronously and
// every completed Batch is sent on out. Each request handed to
// Dispatch must come back in exactly one batch, either resolved or
// marked for retry.
type Dispatcher[I, O any] interface {
	Dispatch(ctx context.Context, reqs []*Request[I, O], out chan<- *Batch[I, O])
}

// Request is the input a task suspended on.
type Request[I, O any] struct {
	task *Task[I, O]
	in   I
}

// Data returns the request input.
func (r *Request[I, O]) Data() I {
	return r.in
}

// Context returns the context of the requesting task. Dispatchers
// should abandon the request once it is done.
func (r *Request[I, O]) Context() context.Context {
	return r.task.ctx
}

type resolution[I, O any] struct {
	req *Request[I, O]
	out O
}

// Batch groups requests that a dispatcher completes together. A batch
// is owned by one goroutine until it is sent back to the loop.
type Batch[I, O any] struct {
	requests []*Request[I, O]
	resolved []resolution[I, O]
	retries  []*Request[I, O]
}

// NewBatch returns a batch covering reqs.
func NewBatch[I, O any](reqs ...*Request[I, O]) *Batch[I, O] {
	return &Batch[I, O]{requests: reqs}
}

// Requests returns the requests in the batch.
func (b *Batch[I, O]) Requests() []*Request[I, O] {
	return b.requests
}

// Len returns the number of requests in the batch.
func (b *Batch[I, O]) Len() int {
	return len(b.requests)
}

// Resolve completes the i-th request with out.
func (b *Batch[I, O]) Resolve(i int, out O) {
	b.resolved = append(b.resolved, resolution[I, O]{req: b.requests[i], out: out})
}

// Retry puts the i-th request back on the loop's queue for another
// dispatch.
func (b *Batch[I, O]) Retry(i int) {
	b.retries = append(b.retries, b.requests[i])
}

func (b *Batch[I, O]) validate() {
	if got := len(b.resolved) + len(b.retries); got != len(b.requests) {
		panic(fmt.Sprintf("flight: batch of %d requests came back with %d outcomes", len(b.requests), got))
	}
}

// requestQueue collects requests raised by tasks between two
// dispatches. It is shared by every task of a loop.
type requestQueue[I, O any] struct {
	requests []*Request[I, O]
}

func (q *requestQueue[I, O]) add(reqs ...*Request[I, O]) {
	q.requests = append(q.requests, reqs...)
}

// take hands the queued requests to the caller and empties the queue.
func (q *requestQueue[I, O]) take() []*Request[I, O] {
	reqs := q.requests
	q.requests = nil
	return reqs
}

func (q *requestQueue[I, O]) len() int {
	return len(q.requests)
}
