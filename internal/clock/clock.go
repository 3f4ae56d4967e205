package clock

import (
	"sync"
	"time"
)

// Clock allows injecting time into services so status derivation and hold
// expiry are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Stepper is a clock tests can advance between operations, e.g. to let a
// hold pass its expiry before running a reaper sweep.
type Stepper struct {
	mu  sync.Mutex
	now time.Time
}

func NewStepper(t time.Time) *Stepper {
	return &Stepper{now: t.UTC()}
}

func (s *Stepper) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Stepper) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}
