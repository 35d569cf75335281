//go:build linux

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// Monotonic reads CLOCK_MONOTONIC, the same clock the kernel uses to stamp
// evdev events when EVIOCSCLOCKID selects it.
type Monotonic struct{}

// Now returns the CLOCK_MONOTONIC reading.
func (Monotonic) Now() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Duration(time.Now().UnixNano())
	}
	return time.Duration(ts.Nano())
}
