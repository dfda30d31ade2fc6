package flight

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Source produces the uniform random numbers units draw their delays
// from. *rand.Rand satisfies it; wrap it with NewLockedSource before
// sharing it between schedulers that run concurrently.
type Source interface {
	// Int64N returns a value in [0, n). n is positive.
	Int64N(n int64) int64
	// Float64 returns a value in [0, 1).
	Float64() float64
}

type globalSource struct{}

func (globalSource) Int64N(n int64) int64 { return rand.Int64N(n) }
func (globalSource) Float64() float64     { return rand.Float64() }

// DefaultSource draws from the math/rand/v2 global generator.
func DefaultSource() Source { return globalSource{} }

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedSource makes r safe for concurrent use.
func NewLockedSource(r *rand.Rand) Source {
	return &lockedSource{r: r}
}

func (s *lockedSource) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Int64N(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Uniform draws a duration uniformly from [0, bound). It returns zero
// when bound is not positive.
func Uniform(src Source, bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	return time.Duration(src.Int64N(int64(bound)))
}

// UniformFloat draws a value uniformly from [0, bound). It returns zero
// when bound is not positive.
func UniformFloat(src Source, bound float64) float64 {
	if !(bound > 0) {
		return 0
	}
	v := src.Float64() * bound
	if v >= bound {
		// rounding of the product can land on the bound
		v = math.Nextafter(bound, 0)
	}
	return v
}

// Clock reads the wall clock for timing measurements.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
