package flight

import (
	"context"
	"fmt"
	"runtime/trace"
	"strings"

	"github.com/webriots/coro"
)

const (
	taskTraceTaskType   = "flight-task"
	taskTraceRegionType = "flight-region"
	taskTraceCategory   = "flight"
)

// Task is a coroutine-backed unit of work. Every task of a Schedule
// runs on the goroutine driving its loop, one at a time; a task only
// gives up control when it awaits a request, waits for children or
// parks on a synchronization primitive.
type Task[I, O any] struct {
	ctx      context.Context
	suspend  func() O
	resume   func(O) (I, bool)
	cancel   func()
	queue    *requestQueue[I, O]
	flights  *taskFlights
	sched    *Schedule[I, O]
	parent   *Task[I, O]
	children int
	waiting  bool
}

// TaskBase is the part of a task that does not depend on its request
// and response types.
type TaskBase interface {
	Context() context.Context
	Do(any, func() (any, error)) (any, error, bool)
	Go(func(context.Context))
	Group() ErrGroup
	Wait()

	Log(string)
	Logf(string, ...any)

	spawn(ctx context.Context, fn func(context.Context))
	parentTask() TaskBase
	wake()
	suspendTask()
}

// loop runs fn as the root task and services the requests of the
// whole task tree until the root returns.
func loop[I, O any](
	ctx context.Context,
	fn func(context.Context, *Task[I, O]),
	sched *Schedule[I, O],
) {
	var tracer *trace.Task

	ctx, tracer = trace.NewTask(ctx, taskTraceTaskType)
	defer tracer.End()

	program := func(ctx context.Context, task *Task[I, O]) {
		fn(ctx, task)
		task.Wait()
	}

	root := newTask(ctx, program, nil)
	root.sched = sched
	defer root.cancel()

	trace.Log(ctx, taskTraceCategory, "LOOP")

	for root.resumeZero() {
		for pending := 0; root.queue.len() > 0 || pending > 0; {
			trace.Logf(ctx, taskTraceCategory, "LOOP QUEUED %v PENDING %v", root.queue.len(), pending)

			if n := root.queue.len(); n > 0 {
				sched.dispatch.Dispatch(root.ctx, root.queue.take(), sched.responses)
				pending += n
			}

			trace.Log(ctx, taskTraceCategory, "LOOP WAIT")
			batch := <-sched.responses

		drain:
			batch.validate()
			pending -= batch.Len()
			root.queue.add(batch.retries...)

			for _, r := range batch.resolved {
				task := r.req.task
				task.Log("RESOLVED")
				task.run(r.out)
			}

			select {
			case batch = <-sched.responses:
				goto drain
			default:
			}
		}
	}

	if root.children > 0 {
		panic("flight: loop finished with live child tasks")
	}

	trace.Log(ctx, taskTraceCategory, "LOOP DONE")
}

func newTask[I, O any](
	ctx context.Context,
	fn func(context.Context, *Task[I, O]),
	parent *Task[I, O],
) *Task[I, O] {
	task := &Task[I, O]{parent: parent}

	if parent == nil {
		task.queue = new(requestQueue[I, O])
		task.flights = newTaskFlights()
	} else {
		task.queue = parent.queue
		task.flights = parent.flights
		task.sched = parent.sched
		parent.children++
	}

	task.ctx = withTaskContext(ctx, task)

	task.resume, task.cancel = coro.New(
		func(_ func(I) O, suspend func() O) (z I) {
			region := trace.StartRegion(task.ctx, taskTraceRegionType)

			defer func() {
				if task.parent != nil {
					task.parent.children--
				}
				region.End()
			}()

			task.suspend = suspend
			fn(task.ctx, task)
			return
		},
	)

	return task
}

// Context returns the task context. It carries the task itself, see
// TaskFromContext.
func (t *Task[I, O]) Context() context.Context {
	return t.ctx
}

// Do runs fn once for key across the whole task tree. Concurrent
// callers park until the running call finishes; later callers get the
// stored result. A failed call is not stored.
func (t *Task[I, O]) Do(key any, fn func() (any, error)) (any, error, bool) {
	t.Logf("DO %v", key)
	return t.flights.do(t, key, fn)
}

// Spawn starts fn as a child task. The child runs until it first
// suspends before Spawn returns.
func (t *Task[I, O]) Spawn(fn func(context.Context, *Task[I, O])) {
	t.spawnTask(t.ctx, fn)
}

// Go is like Spawn for functions that do not need the task handle.
func (t *Task[I, O]) Go(fn func(context.Context)) {
	t.spawn(t.ctx, fn)
}

// Await suspends the task until the dispatcher resolves in, and
// returns the response.
func (t *Task[I, O]) Await(in I) O {
	t.Log("AWAIT")

	t.queue.add(&Request[I, O]{task: t, in: in})
	return t.suspend()
}

// Group returns a new ErrGroup whose children are children of t.
func (t *Task[I, O]) Group() ErrGroup {
	return newErrGroup(t)
}

// Wait suspends the task until all of its children have finished.
func (t *Task[I, O]) Wait() {
	t.Log("WAIT")

	if t.children > 0 {
		t.waiting = true
		t.suspend()
		t.waiting = false
	}
}

func (t *Task[I, O]) spawnTask(ctx context.Context, fn func(context.Context, *Task[I, O])) {
	task := newTask(ctx, fn, t)
	task.Log("GO")
	task.resumeZero()
}

func (t *Task[I, O]) spawn(ctx context.Context, fn func(context.Context)) {
	t.spawnTask(ctx, ignoreTask[I, O](fn))
}

// run resumes the task with out. When that finishes the task and its
// parent is suspended in Wait for its last child, the parent is
// resumed too. A parent parked anywhere else, or still running further
// up the stack, is left alone.
func (t *Task[I, O]) run(out O) {
	t.Log("RUN")

	if _, ok := t.resume(out); ok {
		return
	}

	p := t.parent
	if p == nil || !p.waiting || p.children > 0 {
		return
	}

	p.wake()
}

func (t *Task[I, O]) resumeZero() bool {
	var z O
	_, ok := t.resume(z)
	return ok
}

func (t *Task[I, O]) wake() {
	var z O
	t.run(z)
}

func (t *Task[I, O]) suspendTask() {
	t.suspend()
}

func (t *Task[I, O]) parentTask() TaskBase {
	if t == nil || t.parent == nil {
		return nil
	}
	return t.parent
}

// Log records msg as a trace annotation prefixed with the task path.
// It is free when tracing is off.
func (t *Task[I, O]) Log(msg string) {
	if trace.IsEnabled() {
		var sb strings.Builder
		taskPath(&sb, t)
		sb.WriteRune(' ')
		sb.WriteString(msg)
		trace.Log(t.ctx, taskTraceCategory, sb.String())
	}
}

// Logf is like Log with fmt formatting.
func (t *Task[I, O]) Logf(format string, args ...any) {
	if trace.IsEnabled() {
		var sb strings.Builder
		taskPath(&sb, t)
		sb.WriteRune(' ')
		fmt.Fprintf(&sb, format, args...)
		trace.Log(t.ctx, taskTraceCategory, sb.String())
	}
}

func taskPath(sb *strings.Builder, t TaskBase) {
	if t == nil {
		return
	}
	taskPath(sb, t.parentTask())
	fmt.Fprintf(sb, "%p|", t)
}

func ignoreTask[I, O any](fn func(context.Context)) func(context.Context, *Task[I, O]) {
	return func(ctx context.Context, _ *Task[I, O]) { fn(ctx) }
}
