// Package key defines the keyboard model shared by the remapping engine and
// its collaborators.
//
//   - Key: an evdev key code (ordinary keys, modifier keys, pointer buttons)
//   - Modifier: a logical modifier, either side-specific or unspecified
//   - Combo: a set of modifiers plus one base key
//   - Action: press, release, or autorepeat
//   - Event: one decoded input event
//
// # Key expressions
//
// Keymaps are written with expressions such as "C-x", "M-Shift-comma" or
// "LC-f6". Modifier prefixes follow the classic Emacs notation:
//
//	C, Ctrl         Control (either side)    LC, LCtrl / RC, RCtrl
//	M, Alt          Alt (either side)        LM, LAlt  / RM, RAlt
//	Shift           Shift (either side)      LShift    / RShift
//	Super, Win      Super (either side)      LSuper, LWin / RSuper, RWin
//
// The base key is resolved case-insensitively through the evdev key name
// tables, with or without the KEY_ prefix and with or without underscores.
package key
