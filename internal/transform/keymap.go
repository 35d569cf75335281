package transform

import (
	"keysnail/internal/key"
)

// Binding pairs a combo with its command as declared by the user, before
// modifier expansion.
type Binding struct {
	Combo   key.Combo
	Command Command
}

// Mapping is an immutable combo to command table. Unspecified modifiers in
// declared combos are expanded to every left/right concretisation.
type Mapping struct {
	entries map[key.Combo]Command
	// declared keeps the user's order for listing.
	declared []Binding
}

// NewMapping builds a mapping from bindings. A combo written with only
// left/right modifiers takes precedence over an expansion that produces
// the same combo. Among bindings of equal precedence the later one wins.
func NewMapping(bindings ...Binding) *Mapping {
	m := &Mapping{
		entries:  make(map[key.Combo]Command),
		declared: append([]Binding(nil), bindings...),
	}

	explicit := make(map[key.Combo]bool)
	for _, b := range bindings {
		if b.Combo.Mods.IsSpecified() {
			m.entries[b.Combo] = b.Command
			explicit[b.Combo] = true
		}
	}
	for _, b := range bindings {
		if b.Combo.Mods.IsSpecified() {
			continue
		}
		for _, c := range b.Combo.Expand() {
			if !explicit[c] {
				m.entries[c] = b.Command
			}
		}
	}
	return m
}

// Lookup returns the command bound to an exact, fully specified combo.
func (m *Mapping) Lookup(c key.Combo) (Command, bool) {
	if m == nil {
		return nil, false
	}
	cmd, ok := m.entries[c]
	return cmd, ok
}

// Len returns the number of expanded entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Bindings returns the bindings as declared.
func (m *Mapping) Bindings() []Binding {
	if m == nil {
		return nil
	}
	return append([]Binding(nil), m.declared...)
}

// Keymap is a named mapping guarded by a condition.
type Keymap struct {
	Name      string
	Condition Condition
	Mapping   *Mapping
}
