package output

import (
	"fmt"

	"github.com/bendahl/uinput"

	"keysnail/internal/key"
)

// UinputPath is the uinput control device.
const UinputPath = "/dev/uinput"

// Uinput is a virtual keyboard created through bendahl/uinput.
type Uinput struct {
	kb uinput.Keyboard
}

// NewUinput creates a virtual keyboard named name.
func NewUinput(name string) (*Uinput, error) {
	kb, err := uinput.CreateKeyboard(UinputPath, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("create uinput keyboard: %w", err)
	}
	return &Uinput{kb: kb}, nil
}

// Emit writes one key event. The library has no repeat event, so a repeat
// is sent as another key down.
func (u *Uinput) Emit(k key.Key, a key.Action) error {
	if a == key.Release {
		return u.kb.KeyUp(int(k))
	}
	return u.kb.KeyDown(int(k))
}

// Close destroys the virtual keyboard.
func (u *Uinput) Close() error {
	return u.kb.Close()
}
