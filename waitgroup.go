package flight

// WaitGroup waits for a collection of tasks to finish. Tasks call
// Add(1) before they start and Done when they finish; Wait parks the
// calling task until the counter drops to zero.
type WaitGroup struct {
	noCopy  noCopy
	n       int
	waiters waitQueue
}

// Add adds delta to the counter. When the counter reaches zero every
// task parked in Wait is resumed. Add panics if the counter goes
// negative.
func (wg *WaitGroup) Add(delta int) {
	wg.n += delta

	if wg.n < 0 {
		panic("flight: negative WaitGroup counter")
	}

	if wg.n > 0 {
		return
	}

	// Tasks woken here may Wait again; only release the current ones.
	for n := wg.waiters.len(); n > 0; n-- {
		wg.waiters.wakeOne()
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait parks task until the counter is zero.
func (wg *WaitGroup) Wait(task TaskBase) {
	if wg.n == 0 {
		return
	}

	wg.waiters.park(task)
}
