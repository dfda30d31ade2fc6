// Package metrics holds the small instrumentation types shared by the
// flight and memo packages, so that neither depends on a particular
// metrics backend.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration
// when the operation completes, as in
// defer m.RunDuration("run").ObserveDuration().
type Timer interface {
	ObserveDuration()
}

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

// NopTimer returns a Timer that records nothing.
func NopTimer() Timer { return nopTimer{} }
