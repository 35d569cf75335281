package key

import "strings"

// Combo is a set of modifiers plus one base key. Combo values are comparable
// and the modifier set is order-independent, so a Combo can key a map.
type Combo struct {
	Mods ModSet
	Key  Key
}

// NewCombo builds a combo from a base key and modifiers.
func NewCombo(k Key, mods ...Modifier) Combo {
	return Combo{Mods: NewModSet(mods...), Key: k}
}

// WithModifier returns a copy of c with m added.
func (c Combo) WithModifier(m Modifier) Combo {
	c.Mods = c.Mods.With(m)
	return c
}

// Expand returns every side-specific combo matching c: the Cartesian product
// of the Left/Right concretisations of its unspecified modifiers.
func (c Combo) Expand() []Combo {
	out := []Combo{{Key: c.Key}}
	for _, m := range c.Mods.Modifiers() {
		sides := []Modifier{m}
		if !m.IsSpecified() {
			sides = []Modifier{m.ToLeft(), m.ToRight()}
		}
		next := make([]Combo, 0, len(out)*len(sides))
		for _, partial := range out {
			for _, side := range sides {
				next = append(next, partial.WithModifier(side))
			}
		}
		out = next
	}
	return out
}

// String renders c as a key expression, e.g. "LC-Shift-a".
func (c Combo) String() string {
	var b strings.Builder
	for _, m := range c.Mods.Modifiers() {
		b.WriteString(m.String())
		b.WriteByte('-')
	}
	b.WriteString(c.Key.String())
	return b.String()
}
