package utility

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Clock is the time source for anything that stamps ids or spawn times.
type Clock interface {
	Now() time.Time
}

// Rand is the randomness source used for angle, zone and jitter sampling.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// SystemRand returns the process-wide generator. Safe for concurrent use.
func SystemRand() Rand { return systemRand{} }

// NewSeededRand returns a deterministic generator. Not safe for concurrent use.
func NewSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b; t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
