package transform

import (
	"time"

	"keysnail/internal/key"
)

// Default timeouts.
const (
	DefaultMultipurposeTimeout = 1000 * time.Millisecond
	DefaultChordTimeout        = 200 * time.Millisecond
)

// Tables is the declarative configuration an Engine runs on. It must not be
// modified once handed to NewEngine.
type Tables struct {
	ModMap       ModMapLayer
	Multipurpose MultipurposeLayer
	// Keymaps are kept in definition order; earlier keymaps win on combo
	// collisions.
	Keymaps []Keymap
	Chords  *ChordTable

	MultipurposeTimeout time.Duration
	ChordTimeout        time.Duration

	// ChordDisableKey, when not key.Reserved, turns chord mode off whenever
	// it is seen. It is compared against the physical key before modmap.
	ChordDisableKey key.Key
}

// NewTables returns empty tables with default timeouts.
func NewTables() *Tables {
	return &Tables{
		Chords:              NewChordTable(),
		MultipurposeTimeout: DefaultMultipurposeTimeout,
		ChordTimeout:        DefaultChordTimeout,
	}
}

func (t *Tables) withDefaults() *Tables {
	c := *t
	if c.MultipurposeTimeout <= 0 {
		c.MultipurposeTimeout = DefaultMultipurposeTimeout
	}
	if c.ChordTimeout <= 0 {
		c.ChordTimeout = DefaultChordTimeout
	}
	if c.Chords == nil {
		c.Chords = NewChordTable()
	}
	return &c
}

// AddKeymap appends a keymap.
func (t *Tables) AddKeymap(name string, cond Condition, m *Mapping) {
	t.Keymaps = append(t.Keymaps, Keymap{Name: name, Condition: cond, Mapping: m})
}
