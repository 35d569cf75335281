package transform

import "keysnail/internal/key"

// multipurpose tracks dual-role keys. A key in table is consumed here: its
// press is held back, a quick release taps Tap, and a release after
// another key was pressed releases Hold.
func (e *Engine) multipurpose(table MultipurposeMap, k key.Key, a key.Action) {
	st := e.state
	now := e.clock.Now()

	if entry, ok := table[k]; ok {
		keyDown := st.pressedKeys.has(k)
		modDown := st.pressedMods.has(entry.Hold)
		wasLast := st.hasLastKey && st.lastKey == k

		st.pressedKeys.update(k, a)
		switch {
		case a == key.Release && keyDown:
			if wasLast && now-st.lastKeyTime < e.tables.MultipurposeTimeout {
				e.pressHoldModifiers(table)
				e.onKey(entry.Tap, key.Press, st.lastClass)
				e.onKey(entry.Tap, key.Release, st.lastClass)
			} else if modDown {
				e.onKey(entry.Hold, key.Release, st.lastClass)
			}
		case a == key.Press && !keyDown:
			st.lastKeyTime = now
		}
	} else if !key.IsModifier(k) && a == key.Press {
		e.pressHoldModifiers(table)
	}

	if a == key.Press {
		st.lastKey = k
		st.hasLastKey = true
	}
}

// pressHoldModifiers presses the hold modifier of every held multipurpose
// key that has not sent it yet, in key code order.
func (e *Engine) pressHoldModifiers(table MultipurposeMap) {
	st := e.state
	held := make(keySet)
	for k := range table {
		if st.pressedKeys.has(k) {
			held[k] = struct{}{}
		}
	}
	for _, k := range held.sorted() {
		hold := table[k].Hold
		if !st.pressedMods.has(hold) {
			e.onKey(hold, key.Press, st.lastClass)
		}
	}
}
