package transform

import "keysnail/internal/key"

// chord runs the simultaneous detector for one event. It is only reached
// while chord mode is on.
func (e *Engine) chord(k key.Key, a key.Action, class string) {
	st := e.state
	chords := e.tables.Chords

	if key.IsModifier(k) {
		st.updateModifier(k, a)
		e.out.SendKeyAction(k, a)
		return
	}

	if !a.IsPressed() {
		now := e.clock.Now()
		if st.hasPending && st.pending == k {
			e.resolveSingle(k)
			st.clearPending(now)
		}
		if e.out.IsPressed(k) {
			e.out.SendKeyAction(k, a)
		}
		return
	}

	if len(st.pressedMods) > 0 {
		e.transformKey(k, a, class)
		return
	}

	if a != key.Press {
		return
	}
	now := e.clock.Now()

	if st.hasPending {
		if cmd, ok := chords.Pair(k, st.pending); ok {
			if now-st.pendingTime < e.tables.ChordTimeout {
				e.log.Debug("chord", "first", st.pending.String(), "second", k.String())
				e.resolvePair(cmd, k, a)
				st.clearPending(now)
				return
			}
			// Too slow: the first key stands alone and the second one
			// opens a new window.
			e.resolveSingle(st.pending)
			st.setPending(k, now)
			return
		}
		e.resolveSingle(st.pending)
		st.clearPending(now)
	}

	if chords.pendable(k) {
		st.setPending(k, now)
		return
	}

	e.onKey(k, a, class)
	st.clearPending(now)
}

// resolveSingle runs the single-key command for k. A key without one was
// only held back as a potential chord partner and is dropped.
func (e *Engine) resolveSingle(k key.Key) {
	cmd, ok := e.tables.Chords.Single(k)
	if !ok {
		e.log.Debug("chord key dropped", "key", k.String())
		return
	}
	if e.exec(cmd, k, key.Press) != outcomeKeep {
		e.state.resetMode()
	}
}

// resolvePair runs a pair command. Commands starting with a Shift key emit
// the rest of the sequence with Shift held in the modifier state, so each
// key goes out as a shifted combo.
func (e *Engine) resolvePair(cmd Command, k key.Key, a key.Action) {
	st := e.state
	if shift, rest, ok := shiftedChord(cmd); ok {
		st.updateModifier(shift, key.Press)
		for _, sub := range rest {
			if ek, isKey := sub.(EmitKey); isKey {
				sub = EmitCombo{Combo: key.Combo{Mods: st.PressedModifiers(), Key: ek.Key}}
			}
			if e.exec(sub, k, a) != outcomeContinue {
				break
			}
		}
		st.updateModifier(shift, key.Release)
		st.resetMode()
		return
	}
	if e.exec(cmd, k, a) != outcomeKeep {
		st.resetMode()
	}
}
