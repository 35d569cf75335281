package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

var modifierPrefixes = map[string]Modifier{
	"LC": LControl, "LCtrl": LControl,
	"RC": RControl, "RCtrl": RControl,
	"C": Control, "Ctrl": Control,
	"LM": LAlt, "LAlt": LAlt,
	"RM": RAlt, "RAlt": RAlt,
	"M": Alt, "Alt": Alt,
	"LShift": LShift,
	"RShift": RShift,
	"Shift":  Shift,
	"LSuper": LSuper, "LWin": LSuper,
	"RSuper": RSuper, "RWin": RSuper,
	"Super": Super, "Win": Super,
}

// ParseCombo parses a key expression such as "C-M-j", "LC-f6" or "left".
//
// Modifier prefixes are case-sensitive and separated by "-". Whatever
// follows the last recognised prefix is the base key, so "C-minus" works
// while "C--" does not.
func ParseCombo(spec string) (Combo, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Combo{}, ErrEmptySpec
	}

	var mods ModSet
	rest := spec
	for {
		idx := strings.IndexByte(rest, '-')
		if idx <= 0 {
			break
		}
		m, ok := modifierPrefixes[rest[:idx]]
		if !ok {
			break
		}
		mods = mods.With(m)
		rest = rest[idx+1:]
	}
	if rest == "" {
		return Combo{}, fmt.Errorf("%w: %q has no base key", ErrInvalidSpec, spec)
	}

	k, err := FromName(rest)
	if err != nil {
		return Combo{}, fmt.Errorf("%w: %q: %w", ErrInvalidSpec, spec, err)
	}
	return Combo{Mods: mods, Key: k}, nil
}

// ParseKey parses a bare key name. Modifier prefixes are rejected.
func ParseKey(spec string) (Key, error) {
	c, err := ParseCombo(spec)
	if err != nil {
		return Reserved, err
	}
	if c.Mods != 0 {
		return Reserved, fmt.Errorf("%w: %q: modifiers not allowed here", ErrInvalidSpec, spec)
	}
	return c.Key, nil
}
