package core

import "time"

// Throttle limits how often a periodic action (progress logging) fires.
type Throttle struct {
	every time.Duration
	last  time.Time
	now   func() time.Time
}

// NewThrottle returns a Throttle that fires at most once per interval.
// A non-positive interval falls back to one second.
func NewThrottle(every time.Duration) *Throttle {
	return newThrottle(every, time.Now)
}

func newThrottle(every time.Duration, now func() time.Time) *Throttle {
	if every <= 0 {
		every = time.Second
	}
	return &Throttle{every: every, now: now}
}

// SetInterval changes the interval.
func (t *Throttle) SetInterval(every time.Duration) {
	if every <= 0 {
		every = time.Second
	}
	t.every = every
}

// Due reports whether the interval has elapsed since the last time Due
// returned true. The first call only arms the throttle.
func (t *Throttle) Due() bool {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		return false
	}
	if now.Sub(t.last) >= t.every {
		t.last = now
		return true
	}
	return false
}
