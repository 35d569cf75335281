package transform

import (
	"sort"
	"time"

	"keysnail/internal/key"
)

// Mode is the keymap dispatch mode.
type Mode int

const (
	// ModeTop dispatches against every keymap active for the window.
	ModeTop Mode = iota
	// ModeEscape forwards the next key untransformed.
	ModeEscape
	// ModeSubmap dispatches against a single nested mapping.
	ModeSubmap
)

func (m Mode) String() string {
	switch m {
	case ModeEscape:
		return "escape"
	case ModeSubmap:
		return "submap"
	default:
		return "top"
	}
}

type keySet map[key.Key]struct{}

func (s keySet) update(k key.Key, a key.Action) {
	if a.IsPressed() {
		s[k] = struct{}{}
	} else {
		delete(s, k)
	}
}

func (s keySet) has(k key.Key) bool {
	_, ok := s[k]
	return ok
}

func (s keySet) sorted() []key.Key {
	keys := make([]key.Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// State is the mutable context of an Engine. It is owned by the goroutine
// calling Engine.Process and is not safe for concurrent use.
type State struct {
	pressedKeys keySet
	// pressedMods holds modifier keys whose last recorded action was a
	// press or repeat.
	pressedMods keySet

	mode   Mode
	submap *Mapping

	mark bool

	lastKey     key.Key
	hasLastKey  bool
	lastKeyTime time.Duration

	pending     key.Key
	hasPending  bool
	pendingTime time.Duration

	simultaneous bool

	lastClass string
	classSeen bool
}

// NewState returns an empty state at top level.
func NewState() *State {
	return &State{
		pressedKeys: make(keySet),
		pressedMods: make(keySet),
	}
}

// Mode returns the dispatch mode.
func (s *State) Mode() Mode {
	return s.mode
}

// Mark reports whether the mark is set.
func (s *State) Mark() bool {
	return s.mark
}

// SimultaneousEnabled reports whether chord mode is on.
func (s *State) SimultaneousEnabled() bool {
	return s.simultaneous
}

// SetSimultaneous turns chord mode on or off. Like the keymap commands, it
// only takes effect until the window class next changes.
func (s *State) SetSimultaneous(on bool) {
	s.simultaneous = on
}

// PressedModifiers returns the modifiers realised by held modifier keys.
func (s *State) PressedModifiers() key.ModSet {
	return key.ModSetFromKeys(s.pressedMods.sorted())
}

// IsKeyPressed reports whether k is held according to the input side.
func (s *State) IsKeyPressed(k key.Key) bool {
	return s.pressedKeys.has(k)
}

// Pending returns the unresolved chord key, if any.
func (s *State) Pending() (key.Key, bool) {
	return s.pending, s.hasPending
}

func (s *State) updateModifier(k key.Key, a key.Action) {
	s.pressedMods.update(k, a)
}

func (s *State) resetMode() {
	s.mode = ModeTop
	s.submap = nil
}

func (s *State) enterSubmap(m *Mapping) {
	s.mode = ModeSubmap
	s.submap = m
}

func (s *State) setPending(k key.Key, now time.Duration) {
	s.pending = k
	s.hasPending = true
	s.pendingTime = now
}

func (s *State) clearPending(now time.Duration) {
	s.hasPending = false
	s.pendingTime = now
}

// settle drops transient dispatch state while keeping held keys, the mark
// and the chord mode. Used when a state is carried over to a rebuilt engine.
func (s *State) settle() {
	s.resetMode()
	s.hasPending = false
	s.hasLastKey = false
}
