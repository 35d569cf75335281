package transform

// Condition guards a conditional table. The zero value always matches.
// Predicates take either the window class alone or the window class and the
// input device name; the arity is fixed when the condition is built.
type Condition struct {
	window func(class string) bool
	device func(class, device string) bool
}

// Always matches every event.
var Always = Condition{}

// WindowCondition builds a condition over the active window class.
func WindowCondition(fn func(class string) bool) Condition {
	return Condition{window: fn}
}

// DeviceCondition builds a condition over the window class and the name of
// the device the event came from.
func DeviceCondition(fn func(class, device string) bool) Condition {
	return Condition{device: fn}
}

// IsAlways reports whether c is unconditional.
func (c Condition) IsAlways() bool {
	return c.window == nil && c.device == nil
}

// Match evaluates the condition.
func (c Condition) Match(class, device string) bool {
	switch {
	case c.device != nil:
		return c.device(class, device)
	case c.window != nil:
		return c.window(class)
	default:
		return true
	}
}
