package key

import (
	"fmt"
	"time"
)

// Action is the value of an EV_KEY event.
type Action int32

const (
	Release Action = 0
	Press   Action = 1
	Repeat  Action = 2
)

// ActionFromValue decodes an EV_KEY value.
func ActionFromValue(v int32) (Action, bool) {
	switch Action(v) {
	case Release, Press, Repeat:
		return Action(v), true
	}
	return 0, false
}

// IsPressed is true for Press and Repeat.
func (a Action) IsPressed() bool {
	return a == Press || a == Repeat
}

func (a Action) String() string {
	switch a {
	case Release:
		return "release"
	case Press:
		return "press"
	case Repeat:
		return "repeat"
	}
	return fmt.Sprintf("action(%d)", int32(a))
}

// Event is a single decoded key event from an input device.
type Event struct {
	Key    Key
	Action Action
	// Device is the name reported by the input device.
	Device string
	Time   time.Time
}
