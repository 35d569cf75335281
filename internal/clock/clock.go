// Package clock provides the monotonic time source used for tap and chord
// timing decisions.
package clock

import "time"

// Clock returns a monotonic reading. Only differences between readings are
// meaningful.
type Clock interface {
	Now() time.Duration
}

// Manual is a Clock advanced explicitly, for tests and replays.
type Manual struct {
	now time.Duration
}

// Now returns the current manual reading.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.now += d
}

// Set moves the clock to an absolute reading.
func (m *Manual) Set(d time.Duration) {
	m.now = d
}
