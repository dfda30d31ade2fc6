package memo

import "strconv"

// State is the lifecycle state of a cache entry.
type State int

const (
	// Empty entries have no value and no computation running.
	Empty State = iota
	// InFlight entries have a computation running.
	InFlight
	// Ready entries hold the value of a successful computation. Ready is
	// terminal.
	Ready
	// Failed entries replay the error of their computation. Only entries
	// of caches using RetainFailure reach it.
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case InFlight:
		return "in_flight"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// FailurePolicy decides what a failed computation leaves behind.
type FailurePolicy int

const (
	// ResetOnFailure returns the entry to Empty, so the next Get starts a
	// new computation. This is the default.
	ResetOnFailure FailurePolicy = iota
	// RetainFailure moves the entry to Failed. Every later Get returns the
	// same error without computing again.
	RetainFailure
)
