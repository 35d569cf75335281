package transform

import "keysnail/internal/key"

// Output receives synthetic key events.
type Output interface {
	// SendKeyAction emits a single press, release or repeat.
	SendKeyAction(k key.Key, a key.Action)
	// SendKey emits a press followed by a release.
	SendKey(k key.Key)
	// SendCombo emits the combo's modifiers around a tap of its base key.
	SendCombo(c key.Combo)
	// IsPressed reports whether k is currently held on the output side.
	IsPressed(k key.Key) bool
}

// WindowClassifier reports the class of the focused application window, or
// "" when it cannot be determined.
type WindowClassifier interface {
	ActiveWindowClass() string
}

// WindowClassFunc adapts a function to WindowClassifier.
type WindowClassFunc func() string

// ActiveWindowClass calls f.
func (f WindowClassFunc) ActiveWindowClass() string {
	return f()
}
