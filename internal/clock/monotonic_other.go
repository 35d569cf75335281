//go:build !linux

package clock

import "time"

var start = time.Now()

// Monotonic uses the runtime's monotonic reading relative to process start.
type Monotonic struct{}

// Now returns the time elapsed since process start.
func (Monotonic) Now() time.Duration {
	return time.Since(start)
}
