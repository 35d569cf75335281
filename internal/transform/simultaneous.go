package transform

import (
	"errors"
	"fmt"

	"keysnail/internal/key"
)

// ErrChordConflict is returned when a pair and its reverse are declared with
// different commands.
var ErrChordConflict = errors.New("inconsistent simultaneous key mapping")

type pair struct {
	first, second key.Key
}

// ChordTable holds the simultaneous pair and single-key mappings. Pairs are
// stored symmetrically.
type ChordTable struct {
	pairs   map[pair]Command
	singles map[key.Key]Command
	// members counts pair entries per key.
	members map[key.Key]int
}

// NewChordTable returns an empty table.
func NewChordTable() *ChordTable {
	return &ChordTable{
		pairs:   make(map[pair]Command),
		singles: make(map[key.Key]Command),
		members: make(map[key.Key]int),
	}
}

// AddPair declares that pressing a and b together runs cmd. The reverse
// order is filled in automatically; if it was already declared with a
// different command, ErrChordConflict is returned and the table is left
// unchanged.
func (t *ChordTable) AddPair(a, b key.Key, cmd Command) error {
	fwd, rev := pair{a, b}, pair{b, a}
	if existing, ok := t.pairs[rev]; ok && !Equal(existing, cmd) {
		return fmt.Errorf("%w: (%s, %s) => %s conflicts with (%s, %s) => %s",
			ErrChordConflict, b, a, describe(existing), a, b, describe(cmd))
	}
	t.put(fwd, cmd)
	if _, ok := t.pairs[rev]; !ok {
		t.put(rev, cmd)
	}
	return nil
}

func (t *ChordTable) put(p pair, cmd Command) {
	if _, ok := t.pairs[p]; !ok {
		t.members[p.first]++
	}
	t.pairs[p] = cmd
}

// AddSingle declares the command a key resolves to when it is typed alone.
func (t *ChordTable) AddSingle(k key.Key, cmd Command) {
	t.singles[k] = cmd
}

// Pair looks up the command for a and b pressed together.
func (t *ChordTable) Pair(a, b key.Key) (Command, bool) {
	cmd, ok := t.pairs[pair{a, b}]
	return cmd, ok
}

// Single looks up the command for k typed alone.
func (t *ChordTable) Single(k key.Key) (Command, bool) {
	cmd, ok := t.singles[k]
	return cmd, ok
}

// Len returns the number of entries, counting both orders of each pair.
func (t *ChordTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pairs) + len(t.singles)
}

// pendable reports whether k may start a chord.
func (t *ChordTable) pendable(k key.Key) bool {
	_, single := t.singles[k]
	return single || t.members[k] > 0
}

// shiftedChord recognises chord commands of the form [Shift, x, ...], used
// to encode shifted punctuation.
func shiftedChord(cmd Command) (key.Key, Sequence, bool) {
	seq, ok := cmd.(Sequence)
	if !ok || len(seq) < 2 {
		return 0, nil, false
	}
	first, ok := seq[0].(EmitKey)
	if !ok || (first.Key != key.LeftShift && first.Key != key.RightShift) {
		return 0, nil, false
	}
	return first.Key, seq[1:], true
}
