package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"a", A},
		{"A", A},
		{"KEY_A", A},
		{"LEFT_CTRL", LeftCtrl},
		{"leftctrl", LeftCtrl},
		{"KEY_1", Key1},
		{"page_up", PageUp},
		{"RIGHT_BRACE", RightBrace},
		{"KPLEFTPAREN", KPLeftParen},
		{"esc", Esc},
		{"escape", Esc},
		{"LEFT_SUPER", LeftMeta},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromNameUnknown(t *testing.T) {
	_, err := FromName("no_such_key")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = FromName("  ")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "A", A.String())
	assert.Equal(t, "LEFTCTRL", LeftCtrl.String())
}

func TestModifierSides(t *testing.T) {
	assert.False(t, Control.IsSpecified())
	assert.True(t, LControl.IsSpecified())
	assert.True(t, RSuper.IsSpecified())

	assert.Equal(t, LShift, Shift.ToLeft())
	assert.Equal(t, RShift, Shift.ToRight())
	assert.Equal(t, LAlt, RAlt.ToLeft())
	assert.Equal(t, RSuper, Super.ToRight())
}

func TestModifierKeys(t *testing.T) {
	assert.Equal(t, []Key{LeftCtrl, RightCtrl}, Control.Keys())
	assert.Equal(t, []Key{RightMeta}, RSuper.Keys())
	assert.True(t, Shift.Matches(RightShift))
	assert.False(t, LShift.Matches(RightShift))
}

func TestModifierFromKey(t *testing.T) {
	m, ok := ModifierFromKey(RightCtrl)
	require.True(t, ok)
	assert.Equal(t, RControl, m)

	_, ok = ModifierFromKey(A)
	assert.False(t, ok)

	for _, k := range ModifierKeys() {
		assert.True(t, IsModifier(k), k.String())
	}
	assert.False(t, IsModifier(CapsLock))
}

func TestModSetOrderIndependent(t *testing.T) {
	a := NewModSet(LControl, LShift)
	b := NewModSet(LShift, LControl)
	assert.Equal(t, a, b)
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Has(LShift))
	assert.False(t, a.Without(LShift).Has(LShift))

	m := map[Combo]string{NewCombo(A, LControl, LShift): "x"}
	assert.Equal(t, "x", m[NewCombo(A, LShift, LControl)])
}

func TestModSetFromKeys(t *testing.T) {
	s := ModSetFromKeys([]Key{LeftCtrl, A, RightShift})
	assert.Equal(t, NewModSet(LControl, RShift), s)
}

func TestComboWithModifier(t *testing.T) {
	c := NewCombo(Left)
	shifted := c.WithModifier(Shift)
	assert.Equal(t, ModSet(0), c.Mods, "original must be unchanged")
	assert.True(t, shifted.Mods.Has(Shift))
}

func TestComboExpand(t *testing.T) {
	got := NewCombo(A, Control, Alt).Expand()
	assert.ElementsMatch(t, []Combo{
		NewCombo(A, LControl, LAlt),
		NewCombo(A, LControl, RAlt),
		NewCombo(A, RControl, LAlt),
		NewCombo(A, RControl, RAlt),
	}, got)

	specified := NewCombo(A, LControl)
	assert.Equal(t, []Combo{specified}, specified.Expand())
	assert.Equal(t, []Combo{NewCombo(A)}, NewCombo(A).Expand())
}

func TestActionFromValue(t *testing.T) {
	a, ok := ActionFromValue(2)
	require.True(t, ok)
	assert.Equal(t, Repeat, a)
	assert.True(t, a.IsPressed())
	assert.False(t, Release.IsPressed())

	_, ok = ActionFromValue(7)
	assert.False(t, ok)
}
