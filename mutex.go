package flight

// Mutex provides mutual exclusion between tasks of one loop. A task
// that finds the mutex held is parked until ownership is handed to it.
type Mutex struct {
	noCopy  noCopy
	owner   TaskBase
	waiters waitQueue
}

// Lock acquires the mutex for task, suspending it while another task
// holds the lock.
func (m *Mutex) Lock(task TaskBase) {
	if m.owner == nil {
		m.owner = task
		return
	}

	m.waiters.park(task)
}

// Unlock releases the mutex. The longest waiting task, if any, becomes
// the owner and is resumed before Unlock returns.
func (m *Mutex) Unlock() {
	if m.owner == nil {
		panic("flight: unlock of unlocked Mutex")
	}

	if m.waiters.len() == 0 {
		m.owner = nil
		return
	}

	m.owner = m.waiters.front()
	m.waiters.wakeOne()
}

// WaitCount returns the number of tasks waiting to acquire the mutex.
func (m *Mutex) WaitCount() int {
	return m.waiters.len()
}
