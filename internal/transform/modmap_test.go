package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"keysnail/internal/key"
)

func TestModMapLayer_Resolve(t *testing.T) {
	layer := ModMapLayer{
		Default: ModMap{key.CapsLock: key.LeftCtrl},
		Conditional: []ConditionalModMap{
			{
				Condition: WindowCondition(func(class string) bool { return class == "Emacs" }),
				Map:       ModMap{key.RightCtrl: key.Esc},
			},
			{
				Condition: DeviceCondition(func(_, device string) bool { return strings.HasPrefix(device, "Microsoft") }),
				Map:       ModMap{key.CapsLock: key.Esc},
			},
		},
	}

	tests := []struct {
		name   string
		in     key.Key
		class  string
		device string
		want   key.Key
	}{
		{"default table", key.CapsLock, "Firefox", "AT keyboard", key.LeftCtrl},
		{"unmapped key", key.A, "Firefox", "AT keyboard", key.A},
		{"window override replaces default", key.CapsLock, "Emacs", "AT keyboard", key.CapsLock},
		{"window override entry", key.RightCtrl, "Emacs", "", key.Esc},
		{"device override", key.CapsLock, "Firefox", "Microsoft Natural", key.Esc},
		{"first match wins", key.CapsLock, "Emacs", "Microsoft Natural", key.CapsLock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				assert.Equal(t, tt.want, layer.Resolve(tt.in, tt.class, tt.device))
			}
		})
	}
}

func TestModMapLayer_Empty(t *testing.T) {
	var layer ModMapLayer
	assert.Equal(t, key.CapsLock, layer.Resolve(key.CapsLock, "", ""))
}

func TestCondition(t *testing.T) {
	assert.True(t, Always.IsAlways())
	assert.True(t, Always.Match("anything", "dev"))

	win := WindowCondition(func(class string) bool { return class == "URxvt" })
	assert.False(t, win.IsAlways())
	assert.True(t, win.Match("URxvt", "ignored"))
	assert.False(t, win.Match("Emacs", ""))

	dev := DeviceCondition(func(class, device string) bool { return class == "" && device == "kbd" })
	assert.True(t, dev.Match("", "kbd"))
	assert.False(t, dev.Match("", "mouse"))
}

func TestMultipurposeLayer_Active(t *testing.T) {
	def := MultipurposeMap{key.Enter: {Tap: key.Enter, Hold: key.RightCtrl}}
	ms := MultipurposeMap{key.LeftShift: {Tap: key.KPLeftParen, Hold: key.LeftShift}}
	layer := MultipurposeLayer{
		Default: def,
		Conditional: []ConditionalMultipurpose{{
			Condition: DeviceCondition(func(_, device string) bool { return strings.HasPrefix(device, "Microsoft") }),
			Map:       ms,
		}},
	}

	assert.Equal(t, def, layer.Active("", "AT keyboard"))
	assert.Equal(t, ms, layer.Active("", "Microsoft Natural"))
}
