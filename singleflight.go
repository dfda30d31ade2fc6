package flight

// taskFlight is one keyed computation shared by the tasks of a loop.
type taskFlight struct {
	wg   WaitGroup
	val  any
	err  error
	done bool
	dups int
}

// taskFlights memoizes keyed computations for a task tree. Successful
// results are kept for the lifetime of the loop; a failed computation
// is forgotten so the next caller tries again.
type taskFlights struct {
	m map[any]*taskFlight
}

func newTaskFlights() *taskFlights {
	return &taskFlights{m: make(map[any]*taskFlight)}
}

// do returns the result for key, running fn only if no result is
// stored and no other task is computing one. shared reports whether
// the result was, or will be, handed to more than one caller.
func (f *taskFlights) do(task TaskBase, key any, fn func() (any, error)) (v any, err error, shared bool) {
	if c, ok := f.m[key]; ok {
		if c.done {
			return c.val, nil, true
		}
		c.dups++
		c.wg.Wait(task)
		return c.val, c.err, true
	}

	c := new(taskFlight)
	c.wg.Add(1)
	f.m[key] = c

	f.call(c, key, fn)
	return c.val, c.err, c.dups > 0
}

func (f *taskFlights) call(c *taskFlight, key any, fn func() (any, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.val, c.err = nil, &PanicError{Value: r}
		}
		c.done = c.err == nil
		if !c.done {
			delete(f.m, key)
		}
		c.wg.Done()
	}()

	c.val, c.err = fn()
}
