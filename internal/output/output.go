// Package output emits synthetic key events on a virtual keyboard.
package output

import (
	"fmt"
	"sync/atomic"

	"keysnail/internal/key"
	"keysnail/internal/logging"
)

// Device writes raw key events.
type Device interface {
	// Emit writes one key event followed by a report.
	Emit(k key.Key, a key.Action) error
	Close() error
}

// Sink tracks output-side key state over a Device. It implements
// transform.Output. Write errors are logged and counted, never returned.
type Sink struct {
	dev     Device
	log     *logging.Logger
	pressed map[key.Key]bool
	errors  atomic.Uint64
}

// NewSink wraps dev.
func NewSink(dev Device, log *logging.Logger) *Sink {
	if log == nil {
		log = logging.Default().WithComponent("output")
	}
	return &Sink{dev: dev, log: log, pressed: make(map[key.Key]bool)}
}

// Options selects the output backend.
type Options struct {
	// Backend is "uinput" or "evdev".
	Backend string
	// Name is the name of the virtual device.
	Name string
}

// Open creates the virtual keyboard for opts and wraps it in a Sink.
func Open(opts Options, log *logging.Logger) (*Sink, error) {
	var (
		dev Device
		err error
	)
	switch opts.Backend {
	case "uinput", "":
		dev, err = NewUinput(opts.Name)
	case "evdev":
		dev, err = NewEvdev(opts.Name)
	default:
		return nil, fmt.Errorf("unknown output backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewSink(dev, log), nil
}

func (s *Sink) emit(k key.Key, a key.Action) {
	if err := s.dev.Emit(k, a); err != nil {
		n := s.errors.Add(1)
		s.log.Warn("output write failed", "key", k.String(), "action", a.String(), "error", err, "errors", n)
		return
	}
	if a.IsPressed() {
		s.pressed[k] = true
	} else {
		delete(s.pressed, k)
	}
}

// SendKeyAction emits a single event.
func (s *Sink) SendKeyAction(k key.Key, a key.Action) {
	s.emit(k, a)
}

// SendKey taps k.
func (s *Sink) SendKey(k key.Key) {
	s.emit(k, key.Press)
	s.emit(k, key.Release)
}

// SendCombo taps c.Key with exactly c's modifiers held. Held modifiers that
// c does not want are released first and pressed again afterwards; missing
// ones are pressed (the left key for an unspecified modifier) and released
// in reverse order.
func (s *Sink) SendCombo(c key.Combo) {
	mods := c.Mods.Modifiers()

	var released []key.Key
	for _, mk := range key.ModifierKeys() {
		if !s.pressed[mk] || wanted(mods, mk) {
			continue
		}
		s.emit(mk, key.Release)
		released = append(released, mk)
	}

	var added []key.Key
	for _, m := range mods {
		if s.anyPressed(m.Keys()) {
			continue
		}
		mk := m.Keys()[0]
		s.emit(mk, key.Press)
		added = append(added, mk)
	}

	s.SendKey(c.Key)

	for i := len(added) - 1; i >= 0; i-- {
		s.emit(added[i], key.Release)
	}
	for _, mk := range released {
		s.emit(mk, key.Press)
	}
}

func wanted(mods []key.Modifier, k key.Key) bool {
	for _, m := range mods {
		if m.Matches(k) {
			return true
		}
	}
	return false
}

func (s *Sink) anyPressed(keys []key.Key) bool {
	for _, k := range keys {
		if s.pressed[k] {
			return true
		}
	}
	return false
}

// IsPressed reports whether k is held on the virtual keyboard.
func (s *Sink) IsPressed(k key.Key) bool {
	return s.pressed[k]
}

// Errors returns the number of failed writes.
func (s *Sink) Errors() uint64 {
	return s.errors.Load()
}

// ReleaseAll releases every held key.
func (s *Sink) ReleaseAll() {
	for k := range s.pressed {
		s.emit(k, key.Release)
	}
}

// Close releases held keys and closes the device.
func (s *Sink) Close() error {
	s.ReleaseAll()
	return s.dev.Close()
}
