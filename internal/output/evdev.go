package output

import (
	"fmt"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"keysnail/internal/key"
)

var synReport = evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT}

// Evdev is a virtual keyboard created with go-evdev. Unlike Uinput it
// forwards repeat events as such.
type Evdev struct {
	dev *evdev.InputDevice
}

// NewEvdev creates a virtual keyboard named name that can emit every KEY_
// code.
func NewEvdev(name string) (*Evdev, error) {
	var codes []evdev.EvCode
	for code, n := range evdev.KEYToString {
		if strings.HasPrefix(n, "KEY_") && code != evdev.KEY_RESERVED {
			codes = append(codes, code)
		}
	}

	dev, err := evdev.CreateDevice(name, evdev.InputID{
		BusType: 0x03,
		Vendor:  0x4b53,
		Product: 0x0001,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: codes,
	})
	if err != nil {
		return nil, fmt.Errorf("create evdev device: %w", err)
	}
	return &Evdev{dev: dev}, nil
}

// Emit writes one key event and a SYN_REPORT.
func (e *Evdev) Emit(k key.Key, a key.Action) error {
	ev := evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.EvCode(k), Value: int32(a)}
	if err := e.dev.WriteOne(&ev); err != nil {
		return err
	}
	syn := synReport
	return e.dev.WriteOne(&syn)
}

// Close destroys the virtual keyboard.
func (e *Evdev) Close() error {
	return e.dev.Close()
}
