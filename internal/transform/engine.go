package transform

import (
	"keysnail/internal/clock"
	"keysnail/internal/key"
	"keysnail/internal/logging"
)

// Engine runs events through the transformation pipeline.
type Engine struct {
	tables  *Tables
	out     Output
	windows WindowClassifier
	state   *State

	clock     clock.Clock
	log       *logging.Logger
	chordGate func() bool
	perStage  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for tap and chord timing.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithChordGate installs a predicate that must hold for chord detection to
// run, in addition to chord mode being enabled.
func WithChordGate(gate func() bool) Option {
	return func(e *Engine) { e.chordGate = gate }
}

// WithState continues from an existing state, keeping held keys, the mark
// and chord mode. Dispatch mode and pending chord/tap tracking are reset.
func WithState(st *State) Option {
	return func(e *Engine) {
		if st != nil {
			st.settle()
			e.state = st
		}
	}
}

// WithPerStageWindowLookup queries the window class separately for the
// modmap, multipurpose and keymap stages instead of once per event.
func WithPerStageWindowLookup() Option {
	return func(e *Engine) { e.perStage = true }
}

// NewEngine builds an engine over t. A nil windows classifier reports "".
func NewEngine(t *Tables, out Output, windows WindowClassifier, opts ...Option) *Engine {
	if t == nil {
		t = NewTables()
	}
	if windows == nil {
		windows = WindowClassFunc(func() string { return "" })
	}
	e := &Engine{
		tables:  t.withDefaults(),
		out:     out,
		windows: windows,
		state:   NewState(),
		clock:   clock.Monotonic{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Default().WithComponent("transform")
	}
	return e
}

// State returns the engine's state.
func (e *Engine) State() *State {
	return e.state
}

// Tables returns the tables the engine runs on.
func (e *Engine) Tables() *Tables {
	return e.tables
}

// Process runs one input event to completion.
func (e *Engine) Process(ev key.Event) {
	st := e.state
	k, a := ev.Key, ev.Action

	// The first event only records the class; chord mode set before it
	// holds until the class actually changes.
	class := e.windows.ActiveWindowClass()
	if !st.classSeen {
		st.lastClass, st.classSeen = class, true
	} else if class != st.lastClass {
		if st.simultaneous {
			e.log.Debug("window changed, simultaneous mode off", "class", class)
		}
		st.simultaneous = false
		st.lastClass = class
	}
	if e.tables.ChordDisableKey != key.Reserved && k == e.tables.ChordDisableKey {
		st.simultaneous = false
	}

	k = e.tables.ModMap.Resolve(k, e.stageClass(class), ev.Device)

	if mp := e.tables.Multipurpose.Active(e.stageClass(class), ev.Device); len(mp) > 0 {
		e.multipurpose(mp, k, a)
		if _, ok := mp[k]; ok {
			return
		}
	}

	if e.tables.Chords.Len() > 0 && st.simultaneous && e.chordGateOpen() {
		e.chord(k, a, class)
		st.pressedKeys.update(k, a)
		return
	}

	e.onKey(k, a, class)
	st.pressedKeys.update(k, a)
}

func (e *Engine) stageClass(snapshot string) string {
	if e.perStage {
		return e.windows.ActiveWindowClass()
	}
	return snapshot
}

func (e *Engine) chordGateOpen() bool {
	return e.chordGate == nil || e.chordGate()
}

// onKey updates modifier state and routes non-modifier presses to keymap
// dispatch.
func (e *Engine) onKey(k key.Key, a key.Action, class string) {
	switch {
	case key.IsModifier(k):
		e.state.updateModifier(k, a)
		e.out.SendKeyAction(k, a)
	case !a.IsPressed():
		if e.out.IsPressed(k) {
			e.out.SendKeyAction(k, a)
		}
	default:
		e.transformKey(k, a, class)
	}
}
