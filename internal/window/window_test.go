package window

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keysnail/internal/logging"
)

// fakeX answers commands from a table keyed by the joined command line.
type fakeX struct {
	answers map[string]string
	calls   []string
}

func (f *fakeX) run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, line)
	out, ok := f.answers[line]
	if !ok {
		return nil, errors.New("exit status 1")
	}
	return []byte(out), nil
}

func newTestX11(f *fakeX, ttl time.Duration) (*X11, *time.Time) {
	now := time.Unix(1000, 0)
	x := NewX11(ttl, logging.Discard())
	x.run = f.run
	x.now = func() time.Time { return now }
	return x, &now
}

func TestParseWMClass(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`WM_CLASS(STRING) = "navigator", "Firefox"`, "Firefox"},
		{`WM_CLASS(STRING) = "emacs", "Emacs"` + "\n", "Emacs"},
		{`WM_CLASS(STRING) = "urxvt"`, "urxvt"},
		{`WM_CLASS:  not found.`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseWMClass(tt.in), tt.in)
	}
}

func TestParseActiveWindow(t *testing.T) {
	id, err := parseActiveWindow("_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3a00003\n")
	require.NoError(t, err)
	assert.Equal(t, "0x3a00003", id)

	_, err = parseActiveWindow("_NET_ACTIVE_WINDOW(WINDOW): window id # 0x0")
	assert.Error(t, err)
	_, err = parseActiveWindow("garbage")
	assert.Error(t, err)
}

func TestX11Xdotool(t *testing.T) {
	f := &fakeX{answers: map[string]string{
		"xdotool getactivewindow":     "60817411\n",
		"xprop -id 60817411 WM_CLASS": `WM_CLASS(STRING) = "navigator", "Firefox"`,
	}}
	x, _ := newTestX11(f, 0)
	assert.Equal(t, "Firefox", x.ActiveWindowClass())
}

func TestX11XpropFallback(t *testing.T) {
	f := &fakeX{answers: map[string]string{
		"xprop -root _NET_ACTIVE_WINDOW": "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3a00003",
		"xprop -id 0x3a00003 WM_CLASS":   `WM_CLASS(STRING) = "emacs", "Emacs"`,
	}}
	x, _ := newTestX11(f, 0)
	assert.Equal(t, "Emacs", x.ActiveWindowClass())
}

func TestX11FailureIsEmpty(t *testing.T) {
	x, _ := newTestX11(&fakeX{}, 0)
	assert.Equal(t, "", x.ActiveWindowClass())
}

func TestX11Cache(t *testing.T) {
	f := &fakeX{answers: map[string]string{
		"xdotool getactivewindow": "1",
		"xprop -id 1 WM_CLASS":    `WM_CLASS(STRING) = "a", "A"`,
	}}
	x, now := newTestX11(f, 50*time.Millisecond)

	assert.Equal(t, "A", x.ActiveWindowClass())
	calls := len(f.calls)

	f.answers["xprop -id 1 WM_CLASS"] = `WM_CLASS(STRING) = "b", "B"`
	*now = now.Add(10 * time.Millisecond)
	assert.Equal(t, "A", x.ActiveWindowClass())
	assert.Len(t, f.calls, calls, "cached lookup must not run commands")

	*now = now.Add(50 * time.Millisecond)
	assert.Equal(t, "B", x.ActiveWindowClass())

	f.answers["xprop -id 1 WM_CLASS"] = `WM_CLASS(STRING) = "c", "C"`
	x.Invalidate()
	assert.Equal(t, "C", x.ActiveWindowClass())
}

func TestNew(t *testing.T) {
	c, err := New("none", 0, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "", c.ActiveWindowClass())

	c, err = New("x11", time.Second, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &X11{}, c)

	_, err = New("wayland", 0, logging.Discard())
	assert.Error(t, err)

	assert.Equal(t, "Firefox", Static("Firefox").ActiveWindowClass())
}

func TestDisplayServer(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	assert.Equal(t, "wayland", DisplayServer())

	t.Setenv("DISPLAY", ":0")
	assert.Equal(t, "x11", DisplayServer())

	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	assert.Equal(t, "unknown", DisplayServer())
}
