package transform

import (
	"strings"

	"keysnail/internal/key"
	"keysnail/internal/logging"
)

type outcome int

const (
	// outcomeContinue lets a sequence run on.
	outcomeContinue outcome = iota
	// outcomeKeep stops and leaves the mode as the command set it.
	outcomeKeep
	// outcomeReset stops and returns to top level.
	outcomeReset
)

// transformKey resolves a press or repeat of a non-modifier key against the
// keymaps.
func (e *Engine) transformKey(k key.Key, a key.Action, class string) {
	st := e.state
	combo := key.Combo{Mods: st.PressedModifiers(), Key: k}

	if st.mode == ModeEscape {
		e.log.Debug("escaped key", "combo", combo.String())
		e.out.SendKeyAction(k, a)
		st.resetMode()
		return
	}

	top := st.mode == ModeTop
	var levels []*Mapping
	if top {
		levels = e.activeMappings(e.stageClass(class))
	} else {
		levels = []*Mapping{st.submap}
	}

	e.log.Debug("combo", "combo", combo.String(), "mode", st.mode.String())

	for _, m := range levels {
		cmd, ok := m.Lookup(combo)
		if !ok {
			continue
		}
		if e.exec(cmd, k, a) != outcomeKeep {
			st.resetMode()
		}
		return
	}

	if top {
		e.out.SendKeyAction(k, a)
	}
	st.resetMode()
}

// activeMappings returns the mappings of every keymap whose condition
// accepts class, in definition order.
func (e *Engine) activeMappings(class string) []*Mapping {
	var (
		levels []*Mapping
		names  []string
	)
	for _, km := range e.tables.Keymaps {
		if km.Condition.Match(class, "") {
			levels = append(levels, km.Mapping)
			names = append(names, km.Name)
		}
	}
	if e.log.EnabledAt(logging.LevelDebug) {
		e.log.Debug("active keymaps", "class", class, "keymaps", strings.Join(names, ", "))
	}
	return levels
}

// exec runs cmd. k and a are the event being handled, forwarded as is by
// PassThrough.
func (e *Engine) exec(cmd Command, k key.Key, a key.Action) outcome {
	st := e.state
	switch c := cmd.(type) {
	case EmitKey:
		e.out.SendKey(c.Key)
	case EmitCombo:
		e.out.SendCombo(c.Combo)
	case *Invoke:
		if c == nil || c.Fn == nil {
			return outcomeContinue
		}
		if next := c.Fn(st); next != nil {
			return e.exec(next, k, a)
		}
	case EnterSubmap:
		st.enterSubmap(c.Mapping)
		return outcomeKeep
	case Sequence:
		for _, sub := range c {
			if o := e.exec(sub, k, a); o != outcomeContinue {
				return o
			}
		}
	case escapeNext:
		st.mode = ModeEscape
		st.submap = nil
		return outcomeKeep
	case passThrough:
		e.out.SendKeyAction(k, a)
		st.resetMode()
		return outcomeReset
	}
	return outcomeContinue
}
