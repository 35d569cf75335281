package key

// Modifier is a logical modifier. Control, Alt, Shift and Super are
// unspecified (they match either physical side); the Left/Right variants are
// specified.
type Modifier uint8

const (
	Control Modifier = iota
	LControl
	RControl
	Alt
	LAlt
	RAlt
	Shift
	LShift
	RShift
	Super
	LSuper
	RSuper

	modifierCount
)

var modifierNames = [modifierCount]string{
	Control:  "C",
	LControl: "LC",
	RControl: "RC",
	Alt:      "M",
	LAlt:     "LM",
	RAlt:     "RM",
	Shift:    "Shift",
	LShift:   "LShift",
	RShift:   "RShift",
	Super:    "Super",
	LSuper:   "LSuper",
	RSuper:   "RSuper",
}

// String returns the short prefix used in key expressions.
func (m Modifier) String() string {
	if m < modifierCount {
		return modifierNames[m]
	}
	return "?"
}

// IsSpecified reports whether m names a concrete side.
func (m Modifier) IsSpecified() bool {
	return m%3 != 0
}

// ToLeft projects m onto its left variant.
func (m Modifier) ToLeft() Modifier {
	return m - m%3 + 1
}

// ToRight projects m onto its right variant.
func (m Modifier) ToRight() Modifier {
	return m - m%3 + 2
}

// Keys returns the physical keys realising m. For an unspecified modifier the
// left key comes first.
func (m Modifier) Keys() []Key {
	switch m {
	case Control:
		return []Key{LeftCtrl, RightCtrl}
	case LControl:
		return []Key{LeftCtrl}
	case RControl:
		return []Key{RightCtrl}
	case Alt:
		return []Key{LeftAlt, RightAlt}
	case LAlt:
		return []Key{LeftAlt}
	case RAlt:
		return []Key{RightAlt}
	case Shift:
		return []Key{LeftShift, RightShift}
	case LShift:
		return []Key{LeftShift}
	case RShift:
		return []Key{RightShift}
	case Super:
		return []Key{LeftMeta, RightMeta}
	case LSuper:
		return []Key{LeftMeta}
	case RSuper:
		return []Key{RightMeta}
	}
	return nil
}

// Matches reports whether pressing physical key k satisfies m.
func (m Modifier) Matches(k Key) bool {
	for _, mk := range m.Keys() {
		if mk == k {
			return true
		}
	}
	return false
}

// ModifierFromKey returns the specified modifier realised by k.
func ModifierFromKey(k Key) (Modifier, bool) {
	switch k {
	case LeftCtrl:
		return LControl, true
	case RightCtrl:
		return RControl, true
	case LeftAlt:
		return LAlt, true
	case RightAlt:
		return RAlt, true
	case LeftShift:
		return LShift, true
	case RightShift:
		return RShift, true
	case LeftMeta:
		return LSuper, true
	case RightMeta:
		return RSuper, true
	}
	return 0, false
}

// IsModifier reports whether k is one of the eight modifier keys.
func IsModifier(k Key) bool {
	_, ok := ModifierFromKey(k)
	return ok
}

// ModifierKeys returns all modifier keys.
func ModifierKeys() []Key {
	return []Key{LeftCtrl, RightCtrl, LeftAlt, RightAlt, LeftShift, RightShift, LeftMeta, RightMeta}
}

// ModSet is an unordered set of modifiers.
type ModSet uint16

// NewModSet builds a set from mods.
func NewModSet(mods ...Modifier) ModSet {
	var s ModSet
	for _, m := range mods {
		s = s.With(m)
	}
	return s
}

// With returns s with m added.
func (s ModSet) With(m Modifier) ModSet {
	return s | 1<<m
}

// Without returns s with m removed.
func (s ModSet) Without(m Modifier) ModSet {
	return s &^ (1 << m)
}

// Has reports whether m is a member of s.
func (s ModSet) Has(m Modifier) bool {
	return s&(1<<m) != 0
}

// Len returns the number of members.
func (s ModSet) Len() int {
	n := 0
	for m := Modifier(0); m < modifierCount; m++ {
		if s.Has(m) {
			n++
		}
	}
	return n
}

// Modifiers returns the members in declaration order.
func (s ModSet) Modifiers() []Modifier {
	var mods []Modifier
	for m := Modifier(0); m < modifierCount; m++ {
		if s.Has(m) {
			mods = append(mods, m)
		}
	}
	return mods
}

// IsSpecified reports whether every member names a concrete side.
func (s ModSet) IsSpecified() bool {
	for _, m := range s.Modifiers() {
		if !m.IsSpecified() {
			return false
		}
	}
	return true
}

// ModSetFromKeys maps the physical modifier keys in keys to their modifiers.
// Non-modifier keys are ignored.
func ModSetFromKeys(keys []Key) ModSet {
	var s ModSet
	for _, k := range keys {
		if m, ok := ModifierFromKey(k); ok {
			s = s.With(m)
		}
	}
	return s
}
