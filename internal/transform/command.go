package transform

import (
	"os/exec"
	"strings"
	"time"

	"keysnail/internal/key"
	"keysnail/internal/logging"
)

// Command is the value a keymap entry resolves to. The set of
// implementations is closed: EmitKey, EmitCombo, *Invoke, EnterSubmap,
// Sequence, EscapeNext and PassThrough.
type Command interface {
	command()
}

// EmitKey taps a key.
type EmitKey struct {
	Key key.Key
}

// EmitCombo taps a combo.
type EmitCombo struct {
	Combo key.Combo
}

// Invoke runs a state-mutating function. A non-nil result is executed as a
// further command.
type Invoke struct {
	Name string
	Fn   func(st *State) Command
}

// EnterSubmap restricts dispatch of the following keys to Mapping.
type EnterSubmap struct {
	Mapping *Mapping
}

// Sequence executes its commands in order.
type Sequence []Command

type escapeNext struct{}

type passThrough struct{}

var (
	// EscapeNext forwards the next key untransformed.
	EscapeNext Command = escapeNext{}
	// PassThrough forwards the current key untransformed and returns to the
	// top level.
	PassThrough Command = passThrough{}
)

func (EmitKey) command()     {}
func (EmitCombo) command()   {}
func (*Invoke) command()     {}
func (EnterSubmap) command() {}
func (Sequence) command()    {}
func (escapeNext) command()  {}
func (passThrough) command() {}

// Keys builds a sequence tapping each key in turn.
func Keys(keys ...key.Key) Sequence {
	seq := make(Sequence, len(keys))
	for i, k := range keys {
		seq[i] = EmitKey{Key: k}
	}
	return seq
}

// SetMark returns a command setting the mark flag.
func SetMark(on bool) *Invoke {
	name := "set_mark(false)"
	if on {
		name = "set_mark(true)"
	}
	return &Invoke{Name: name, Fn: func(st *State) Command {
		st.mark = on
		return nil
	}}
}

// WithMark returns a command that emits c, with Shift added while the mark
// is set. The mark is read when the command runs.
func WithMark(c key.Combo) *Invoke {
	return &Invoke{Name: "with_mark(" + c.String() + ")", Fn: func(st *State) Command {
		if st.mark {
			return EmitCombo{Combo: c.WithModifier(key.Shift)}
		}
		return EmitCombo{Combo: c}
	}}
}

// WithOrSetMark returns a command that sets the mark and emits c with Shift.
func WithOrSetMark(c key.Combo) *Invoke {
	return &Invoke{Name: "with_or_set_mark(" + c.String() + ")", Fn: func(st *State) Command {
		st.mark = true
		return EmitCombo{Combo: c.WithModifier(key.Shift)}
	}}
}

// EnableSimultaneous turns the simultaneous chord mode on.
func EnableSimultaneous() *Invoke {
	return &Invoke{Name: "enable_simultaneous", Fn: func(st *State) Command {
		st.simultaneous = true
		return nil
	}}
}

// DisableSimultaneous turns the simultaneous chord mode off.
func DisableSimultaneous() *Invoke {
	return &Invoke{Name: "disable_simultaneous", Fn: func(st *State) Command {
		st.simultaneous = false
		return nil
	}}
}

// Launch starts argv without waiting for it to exit.
func Launch(argv ...string) *Invoke {
	return &Invoke{Name: "launch(" + strings.Join(argv, " ") + ")", Fn: func(*State) Command {
		if len(argv) == 0 {
			return nil
		}
		cmd := exec.Command(argv[0], argv[1:]...)
		if err := cmd.Start(); err != nil {
			logging.Warn("launch failed", "argv", argv, "error", err)
			return nil
		}
		go cmd.Wait()
		return nil
	}}
}

// Sleep blocks the event loop for d.
func Sleep(d time.Duration) *Invoke {
	return &Invoke{Name: "sleep(" + d.String() + ")", Fn: func(*State) Command {
		time.Sleep(d)
		return nil
	}}
}

// Equal reports whether a and b are the same command. EnterSubmap compares
// by identity; Invoke by identity or, when named, by name.
func Equal(a, b Command) bool {
	switch av := a.(type) {
	case Sequence:
		bv, ok := b.(Sequence)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case EnterSubmap:
		bv, ok := b.(EnterSubmap)
		return ok && av.Mapping == bv.Mapping
	case *Invoke:
		bv, ok := b.(*Invoke)
		if !ok {
			return false
		}
		return av == bv || (av != nil && bv != nil && av.Name != "" && av.Name == bv.Name)
	default:
		return a == b
	}
}

// describe renders a command for logs.
func describe(c Command) string {
	switch v := c.(type) {
	case EmitKey:
		return v.Key.String()
	case EmitCombo:
		return v.Combo.String()
	case *Invoke:
		return v.Name
	case EnterSubmap:
		return "submap"
	case Sequence:
		parts := make([]string, len(v))
		for i, sub := range v {
			parts[i] = describe(sub)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case escapeNext:
		return "escape_next"
	case passThrough:
		return "pass_through"
	}
	return "nil"
}
