// Package flight runs fan-out/join workloads on a cooperative task
// runtime and collapses duplicate work with single-flight primitives.
//
// Key components:
//
//   - Scheduler: launches N independently delayed units, waits for all
//     of them and returns the realized delays sorted ascending. Run
//     uses bare units; RunAsTasks and Launch wrap each unit in a
//     cancellable Handle.
//
//   - Task: a coroutine-backed unit of work. Tasks spawn children,
//     suspend on Await until a Dispatcher resolves their request, and
//     wait for their children to finish. All tasks of one Schedule
//     run on a single event loop.
//
//   - Dispatcher: resolves suspended requests asynchronously and posts
//     completed Batches back to the loop. TimerDispatch resolves
//     duration requests by sleeping.
//
//   - Synchronization primitives: Mutex, WaitGroup, ErrGroup and
//     Task.Do for coordination between tasks of the same loop.
//
// The goroutine-safe memoizing cache lives in the memo subpackage.
package flight
