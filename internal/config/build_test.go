package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keysnail/internal/key"
	"keysnail/internal/logging"
	"keysnail/internal/transform"
)

func build(t *testing.T, path string) (*transform.Tables, []Skipped) {
	t.Helper()
	cfg, err := Load(path)
	require.NoError(t, err)
	tables, skipped, err := cfg.Build(logging.Discard())
	require.NoError(t, err)
	return tables, skipped
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		expr any
		want transform.Command
	}{
		{"left", transform.EmitKey{Key: key.Left}},
		{"C-f4", transform.EmitCombo{Combo: key.NewCombo(key.F4, key.Control)}},
		{"escape_next", transform.EscapeNext},
		{"pass_through", transform.PassThrough},
		{"enable_simultaneous", transform.EnableSimultaneous()},
		{"disable_simultaneous", transform.DisableSimultaneous()},
		{"set_mark(true)", transform.SetMark(true)},
		{"set_mark(false)", transform.SetMark(false)},
		{"with_mark(C-home)", transform.WithMark(key.NewCombo(key.Home, key.Control))},
		{"with_or_set_mark(end)", transform.WithOrSetMark(key.NewCombo(key.End))},
		{"launch(xterm -e top)", transform.Launch("xterm", "-e", "top")},
		{"sleep(0.5)", transform.Sleep(500 * time.Millisecond)},
		{[]any{"esc", "set_mark(false)"}, transform.Sequence{transform.EmitKey{Key: key.Esc}, transform.SetMark(false)}},
		{[]string{"end", "enter"}, transform.Keys(key.End, key.Enter)},
	}

	for _, tt := range tests {
		got, err := ParseCommand(tt.expr, func(string, error) { t.Fatal("unexpected skip") })
		require.NoError(t, err, "%v", tt.expr)
		assert.True(t, transform.Equal(tt.want, got), "%v: got %#v", tt.expr, got)
	}
}

func TestParseCommandErrors(t *testing.T) {
	noSkip := func(string, error) {}

	for _, expr := range []any{"nosuchkey", "frobnicate(1)", "set_mark(maybe)", "sleep(-1)", "launch()", 42} {
		_, err := ParseCommand(expr, noSkip)
		assert.Error(t, err, "%v", expr)
	}

	_, err := ParseCommand("frobnicate(1)", noSkip)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = ParseCommand("C-nosuchkey", noSkip)
	assert.ErrorIs(t, err, key.ErrInvalidSpec)

	// One bad element spoils the whole sequence.
	_, err = ParseCommand([]any{"a", "nosuchkey"}, noSkip)
	assert.Error(t, err)
}

func TestParseBindingsSubmap(t *testing.T) {
	var skipped []string
	cmd, err := ParseCommand(map[string]any{
		"C-s":       "C-s",
		"k":         "C-F4",
		"C-nothing": "a",
	}, func(entry string, _ error) { skipped = append(skipped, entry) })
	require.NoError(t, err)

	sub, ok := cmd.(transform.EnterSubmap)
	require.True(t, ok)
	assert.Equal(t, []string{"C-nothing"}, skipped)

	got, ok := sub.Mapping.Lookup(key.NewCombo(key.K))
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.EmitCombo{Combo: key.NewCombo(key.F4, key.Control)}, got))

	_, ok = sub.Mapping.Lookup(key.NewCombo(key.S, key.RControl))
	assert.True(t, ok)
}

func TestBuildEmacs(t *testing.T) {
	tables, skipped := build(t, "testdata/emacs.toml")
	assert.Empty(t, skipped)

	assert.Equal(t, transform.ModMap{key.CapsLock: key.LeftCtrl}, tables.ModMap.Default)
	require.Len(t, tables.ModMap.Conditional, 1)
	cond := tables.ModMap.Conditional[0]
	assert.True(t, cond.Condition.Match("Emacs", ""))
	assert.False(t, cond.Condition.Match("NotEmacs", ""))
	assert.Equal(t, key.Esc, cond.Map[key.RightCtrl])

	assert.Equal(t, transform.MultipurposeEntry{Tap: key.Enter, Hold: key.RightCtrl}, tables.Multipurpose.Default[key.Enter])

	require.Len(t, tables.Keymaps, 2)
	emacs := tables.Keymaps[0]
	assert.Equal(t, "emacs-like", emacs.Name)
	assert.True(t, emacs.Condition.Match("Firefox", ""))
	assert.False(t, emacs.Condition.Match("Emacs", ""))
	assert.False(t, emacs.Condition.Match("URxvt", ""))

	got, ok := emacs.Mapping.Lookup(key.NewCombo(key.B, key.LControl))
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.EmitKey{Key: key.Left}, got))

	cx, ok := emacs.Mapping.Lookup(key.NewCombo(key.X, key.RControl))
	require.True(t, ok)
	sub, ok := cx.(transform.EnterSubmap)
	require.True(t, ok)
	got, ok = sub.Mapping.Lookup(key.NewCombo(key.G, key.LControl))
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.PassThrough, got))

	firefox := tables.Keymaps[1]
	assert.True(t, firefox.Condition.Match("Firefox", ""))
	assert.True(t, firefox.Condition.Match("org.mozilla.Firefox", ""))
	assert.False(t, firefox.Condition.Match("Chromium", ""))

	assert.Equal(t, time.Second, tables.MultipurposeTimeout)
	assert.Equal(t, 200*time.Millisecond, tables.ChordTimeout)
	assert.Equal(t, 0, tables.Chords.Len())
}

func TestBuildSimultaneous(t *testing.T) {
	tables, skipped := build(t, "testdata/shingeta.toml")
	assert.Empty(t, skipped)

	assert.Equal(t, 150*time.Millisecond, tables.ChordTimeout)
	assert.Equal(t, key.RightAlt, tables.ChordDisableKey)
	// Three pairs in both orders plus three singles.
	assert.Equal(t, 9, tables.Chords.Len())

	cmd, ok := tables.Chords.Pair(key.D, key.J)
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.Keys(key.A), cmd))

	cmd, ok = tables.Chords.Pair(key.D, key.K)
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.Keys(key.LeftShift, key.Key1), cmd))

	cmd, ok = tables.Chords.Single(key.F)
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.EmitKey{Key: key.F}, cmd))
	_, ok = tables.Chords.Single(key.J)
	assert.False(t, ok)

	require.Len(t, tables.Keymaps, 1)
	toggles := tables.Keymaps[0]
	assert.True(t, toggles.Condition.Match("anything", ""))
	enable, ok := toggles.Mapping.Lookup(key.NewCombo(key.RightBrace, key.LControl))
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.EnableSimultaneous(), enable))
	disable, ok := toggles.Mapping.Lookup(key.NewCombo(key.LeftBrace, key.RControl))
	require.True(t, ok)
	assert.True(t, transform.Equal(transform.DisableSimultaneous(), disable))
}

func TestBuildSkipsUnknownKeys(t *testing.T) {
	tables, skipped := build(t, "testdata/unknown_keys.toml")

	entries := make([]string, 0, len(skipped))
	for _, s := range skipped {
		entries = append(entries, s.Entry)
	}
	assert.ElementsMatch(t, []string{"NOT_A_KEY", "C-nosuchkey", "C-n", "C-p"}, entries)

	assert.Equal(t, transform.ModMap{key.CapsLock: key.LeftCtrl}, tables.ModMap.Default)
	require.Len(t, tables.Keymaps, 1)
	assert.Len(t, tables.Keymaps[0].Mapping.Bindings(), 1)
	assert.Equal(t, 2, tables.Keymaps[0].Mapping.Len(), "C-b expands to both control keys")
}

func TestBuildChordConflict(t *testing.T) {
	cfg, err := Load("testdata/conflict.toml")
	require.NoError(t, err)

	_, _, err = cfg.Build(logging.Discard())
	assert.ErrorIs(t, err, transform.ErrChordConflict)
}

func TestBuildDeviceCondition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConditionalModMap = []ConditionalModMapConfig{{
		Predicate: Predicate{DeviceName: "HHKB", WindowClassNot: []string{"Emacs"}},
		Map:       map[string]string{"LEFT_META": "LEFT_ALT"},
	}}

	tables, _, err := cfg.Build(logging.Discard())
	require.NoError(t, err)
	require.Len(t, tables.ModMap.Conditional, 1)

	cond := tables.ModMap.Conditional[0].Condition
	assert.True(t, cond.Match("Firefox", "PFU HHKB Professional"))
	assert.False(t, cond.Match("Emacs", "PFU HHKB Professional"))
	assert.False(t, cond.Match("Firefox", "AT Translated Set 2 keyboard"))

	assert.Equal(t, key.LeftAlt, tables.ModMap.Resolve(key.LeftMeta, "Firefox", "HHKB"))
	assert.Equal(t, key.LeftMeta, tables.ModMap.Resolve(key.LeftMeta, "Firefox", "other"))
}

func TestSkippedString(t *testing.T) {
	s := Skipped{Section: "modmap", Entry: "FOO", Err: key.ErrUnknownKey}
	assert.Equal(t, `modmap: "FOO": unknown key`, s.String())
}

func TestBuildShippedExamples(t *testing.T) {
	paths, err := filepath.Glob("../../examples/*.toml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			tables, skipped := build(t, path)
			assert.Empty(t, skipped)
			assert.True(t, len(tables.Keymaps) > 0 || tables.Chords.Len() > 0)
		})
	}
}
