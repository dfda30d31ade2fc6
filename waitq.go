package flight

import "github.com/gammazero/deque"

// waitQueue parks tasks in FIFO order. A woken task is handed the
// resource it waited for directly, so nothing is counted.
type waitQueue struct {
	noCopy noCopy
	parked deque.Deque[TaskBase]
}

// park suspends t until wakeOne reaches it.
func (q *waitQueue) park(t TaskBase) {
	q.parked.PushBack(t)
	t.suspendTask()
}

// front returns the task next in line. The queue must not be empty.
func (q *waitQueue) front() TaskBase {
	return q.parked.Front()
}

// wakeOne resumes the longest parked task. It reports false when no
// task was waiting.
func (q *waitQueue) wakeOne() bool {
	if q.parked.Len() == 0 {
		return false
	}
	q.parked.PopFront().wake()
	return true
}

func (q *waitQueue) len() int {
	return q.parked.Len()
}
