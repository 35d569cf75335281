package transform

import (
	"keysnail/internal/clock"
	"keysnail/internal/key"
	"keysnail/internal/logging"
)

// recorder is an Output that logs what it was asked to send.
type recorder struct {
	events  []string
	pressed map[key.Key]bool
}

func newRecorder() *recorder {
	return &recorder{pressed: make(map[key.Key]bool)}
}

func (r *recorder) SendKeyAction(k key.Key, a key.Action) {
	r.events = append(r.events, a.String()+" "+k.String())
	r.pressed[k] = a.IsPressed()
}

func (r *recorder) SendKey(k key.Key) {
	r.events = append(r.events, "tap "+k.String())
}

func (r *recorder) SendCombo(c key.Combo) {
	r.events = append(r.events, "combo "+c.String())
}

func (r *recorder) IsPressed(k key.Key) bool {
	return r.pressed[k]
}

func (r *recorder) take() []string {
	ev := r.events
	r.events = nil
	return ev
}

// window is a switchable WindowClassifier that counts lookups.
type window struct {
	class   string
	lookups int
}

func (w *window) ActiveWindowClass() string {
	w.lookups++
	return w.class
}

type harness struct {
	engine *Engine
	out    *recorder
	win    *window
	clock  *clock.Manual
}

func newHarness(t *Tables, opts ...Option) *harness {
	h := &harness{
		out:   newRecorder(),
		win:   &window{},
		clock: &clock.Manual{},
	}
	opts = append([]Option{WithClock(h.clock), WithLogger(logging.Discard())}, opts...)
	h.engine = NewEngine(t, h.out, h.win, opts...)
	return h
}

func (h *harness) press(k key.Key) {
	h.engine.Process(key.Event{Key: k, Action: key.Press})
}

func (h *harness) release(k key.Key) {
	h.engine.Process(key.Event{Key: k, Action: key.Release})
}

func (h *harness) tap(k key.Key) {
	h.press(k)
	h.release(k)
}

// chord presses mod, taps k and releases mod.
func (h *harness) chord(mod, k key.Key) {
	h.press(mod)
	h.tap(k)
	h.release(mod)
}

func pressed(k key.Key) string  { return "press " + k.String() }
func released(k key.Key) string { return "release " + k.String() }
func tapped(k key.Key) string   { return "tap " + k.String() }
func combo(c key.Combo) string  { return "combo " + c.String() }
