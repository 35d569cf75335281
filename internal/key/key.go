package key

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// Key is an evdev key code.
type Key uint16

// Commonly referenced keys.
const (
	Reserved Key = Key(evdev.KEY_RESERVED)

	Esc        Key = Key(evdev.KEY_ESC)
	Key1       Key = Key(evdev.KEY_1)
	Key2       Key = Key(evdev.KEY_2)
	Key5       Key = Key(evdev.KEY_5)
	Minus      Key = Key(evdev.KEY_MINUS)
	Backspace  Key = Key(evdev.KEY_BACKSPACE)
	Tab        Key = Key(evdev.KEY_TAB)
	LeftBrace  Key = Key(evdev.KEY_LEFTBRACE)
	RightBrace Key = Key(evdev.KEY_RIGHTBRACE)
	Enter      Key = Key(evdev.KEY_ENTER)
	Semicolon  Key = Key(evdev.KEY_SEMICOLON)
	Comma      Key = Key(evdev.KEY_COMMA)
	Dot        Key = Key(evdev.KEY_DOT)
	Slash      Key = Key(evdev.KEY_SLASH)
	Space      Key = Key(evdev.KEY_SPACE)
	CapsLock   Key = Key(evdev.KEY_CAPSLOCK)
	F3         Key = Key(evdev.KEY_F3)
	F4         Key = Key(evdev.KEY_F4)
	Home       Key = Key(evdev.KEY_HOME)
	End        Key = Key(evdev.KEY_END)
	Up         Key = Key(evdev.KEY_UP)
	Down       Key = Key(evdev.KEY_DOWN)
	Left       Key = Key(evdev.KEY_LEFT)
	Right      Key = Key(evdev.KEY_RIGHT)
	PageUp     Key = Key(evdev.KEY_PAGEUP)
	PageDown   Key = Key(evdev.KEY_PAGEDOWN)
	Delete     Key = Key(evdev.KEY_DELETE)

	KPLeftParen  Key = Key(evdev.KEY_KPLEFTPAREN)
	KPRightParen Key = Key(evdev.KEY_KPRIGHTPAREN)

	A Key = Key(evdev.KEY_A)
	B Key = Key(evdev.KEY_B)
	C Key = Key(evdev.KEY_C)
	D Key = Key(evdev.KEY_D)
	E Key = Key(evdev.KEY_E)
	F Key = Key(evdev.KEY_F)
	G Key = Key(evdev.KEY_G)
	H Key = Key(evdev.KEY_H)
	I Key = Key(evdev.KEY_I)
	J Key = Key(evdev.KEY_J)
	K Key = Key(evdev.KEY_K)
	L Key = Key(evdev.KEY_L)
	M Key = Key(evdev.KEY_M)
	N Key = Key(evdev.KEY_N)
	O Key = Key(evdev.KEY_O)
	P Key = Key(evdev.KEY_P)
	Q Key = Key(evdev.KEY_Q)
	R Key = Key(evdev.KEY_R)
	S Key = Key(evdev.KEY_S)
	T Key = Key(evdev.KEY_T)
	U Key = Key(evdev.KEY_U)
	V Key = Key(evdev.KEY_V)
	W Key = Key(evdev.KEY_W)
	X Key = Key(evdev.KEY_X)
	Y Key = Key(evdev.KEY_Y)
	Z Key = Key(evdev.KEY_Z)

	LeftCtrl   Key = Key(evdev.KEY_LEFTCTRL)
	RightCtrl  Key = Key(evdev.KEY_RIGHTCTRL)
	LeftShift  Key = Key(evdev.KEY_LEFTSHIFT)
	RightShift Key = Key(evdev.KEY_RIGHTSHIFT)
	LeftAlt    Key = Key(evdev.KEY_LEFTALT)
	RightAlt   Key = Key(evdev.KEY_RIGHTALT)
	LeftMeta   Key = Key(evdev.KEY_LEFTMETA)
	RightMeta  Key = Key(evdev.KEY_RIGHTMETA)
)

// ErrUnknownKey is returned when a key name has no evdev code.
var ErrUnknownKey = errors.New("unknown key")

// aliases maps names used by xmodmap-style configurations onto evdev names
// (without the KEY_ prefix, underscores removed).
var aliases = map[string]string{
	"LEFTSUPER":  "LEFTMETA",
	"RIGHTSUPER": "RIGHTMETA",
	"LEFTWIN":    "LEFTMETA",
	"RIGHTWIN":   "RIGHTMETA",
	"ESCAPE":     "ESC",
	"RETURN":     "ENTER",
	"CAPS":       "CAPSLOCK",
	"PERIOD":     "DOT",
	"PGUP":       "PAGEUP",
	"PGDN":       "PAGEDOWN",
	"DEL":        "DELETE",
}

// index of evdev key names, normalised by normalizeName.
var byName = func() map[string]Key {
	m := make(map[string]Key, len(evdev.KEYFromString))
	for name, code := range evdev.KEYFromString {
		if !strings.HasPrefix(name, "KEY_") && !strings.HasPrefix(name, "BTN_") {
			continue
		}
		m[normalizeName(name)] = Key(code)
	}
	return m
}()

func normalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "KEY_")
	return strings.ReplaceAll(name, "_", "")
}

// FromName resolves a key name such as "a", "LEFT_CTRL", "KEY_LEFTCTRL" or
// "page_up".
func FromName(name string) (Key, error) {
	n := normalizeName(name)
	if n == "" {
		return Reserved, fmt.Errorf("%w: empty name", ErrUnknownKey)
	}
	if alias, ok := aliases[n]; ok {
		n = alias
	}
	if k, ok := byName[n]; ok {
		return k, nil
	}
	return Reserved, fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// String returns the evdev name without the KEY_ prefix.
func (k Key) String() string {
	if name, ok := evdev.KEYToString[evdev.EvCode(k)]; ok {
		return strings.TrimPrefix(name, "KEY_")
	}
	return fmt.Sprintf("KEY(%d)", uint16(k))
}

// Names lists every resolvable key name, sorted.
func Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range evdev.KEYToString {
		short := strings.TrimPrefix(name, "KEY_")
		if seen[short] {
			continue
		}
		seen[short] = true
		names = append(names, short)
	}
	sort.Strings(names)
	return names
}
