package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		spec string
		want Combo
	}{
		{"a", NewCombo(A)},
		{"left", NewCombo(Left)},
		{"C-a", NewCombo(A, Control)},
		{"C-M-j", NewCombo(J, Control, Alt)},
		{"LC-f3", NewCombo(F3, LControl)},
		{"RCtrl-x", NewCombo(X, RControl)},
		{"M-Shift-comma", NewCombo(Comma, Alt, Shift)},
		{"C-Shift-TAB", NewCombo(Tab, Control, Shift)},
		{"Win-space", NewCombo(Space, Super)},
		{"LSuper-home", NewCombo(Home, LSuper)},
		{"C-minus", NewCombo(Minus, Control)},
		{"M-Shift-key_5", NewCombo(Key5, Alt, Shift)},
		{"C-RIGHT_BRACE", NewCombo(RightBrace, Control)},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseCombo(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseComboErrors(t *testing.T) {
	tests := []struct {
		spec string
		err  error
	}{
		{"", ErrEmptySpec},
		{"C-", ErrInvalidSpec},
		{"C-nope", ErrInvalidSpec},
		{"X-a", ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := ParseCombo(tt.spec)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseComboUnknownKeyWrapped(t *testing.T) {
	_, err := ParseCombo("C-nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("CAPSLOCK")
	require.NoError(t, err)
	assert.Equal(t, CapsLock, k)

	_, err = ParseKey("C-a")
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestComboString(t *testing.T) {
	assert.Equal(t, "LC-Shift-A", NewCombo(A, LControl, Shift).String())
	assert.Equal(t, "LEFT", NewCombo(Left).String())
}
