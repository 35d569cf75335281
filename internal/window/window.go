// Package window reports the class of the focused X11 window.
//
// Lookups shell out to xdotool, falling back to xprop, and never fail: any
// error yields "". Results are cached for a short time because the engine
// asks on every key event.
package window

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"keysnail/internal/logging"
	"keysnail/internal/transform"
)

// Static always reports the same class.
type Static string

// ActiveWindowClass returns s.
func (s Static) ActiveWindowClass() string {
	return string(s)
}

// runner executes a command and returns its standard output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// X11 looks the active window class up with xdotool or xprop.
type X11 struct {
	run     runner
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *logging.Logger

	mu      sync.Mutex
	class   string
	fetched time.Time
	valid   bool
}

// NewX11 returns an X11 provider caching results for ttl. A zero ttl
// disables caching.
func NewX11(ttl time.Duration, log *logging.Logger) *X11 {
	if log == nil {
		log = logging.Default().WithComponent("window")
	}
	return &X11{
		run:     execRunner,
		ttl:     ttl,
		timeout: 500 * time.Millisecond,
		now:     time.Now,
		log:     log,
	}
}

// ActiveWindowClass returns the WM_CLASS class of the focused window, or ""
// when it cannot be determined.
func (x *X11) ActiveWindowClass() string {
	x.mu.Lock()
	defer x.mu.Unlock()

	now := x.now()
	if x.valid && x.ttl > 0 && now.Sub(x.fetched) < x.ttl {
		return x.class
	}

	class, err := x.lookup()
	if err != nil {
		x.log.Debug("window class lookup failed", "error", err)
		class = ""
	}
	x.class, x.fetched, x.valid = class, now, true
	return class
}

// Invalidate drops the cached class.
func (x *X11) Invalidate() {
	x.mu.Lock()
	x.valid = false
	x.mu.Unlock()
}

func (x *X11) lookup() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), x.timeout)
	defer cancel()

	id, err := x.activeWindow(ctx)
	if err != nil {
		return "", err
	}

	out, err := x.run(ctx, "xprop", "-id", id, "WM_CLASS")
	if err != nil {
		return "", fmt.Errorf("xprop WM_CLASS: %w", err)
	}
	return parseWMClass(string(out)), nil
}

func (x *X11) activeWindow(ctx context.Context) (string, error) {
	if out, err := x.run(ctx, "xdotool", "getactivewindow"); err == nil {
		if id := strings.TrimSpace(string(out)); id != "" {
			return id, nil
		}
	}

	out, err := x.run(ctx, "xprop", "-root", "_NET_ACTIVE_WINDOW")
	if err != nil {
		return "", fmt.Errorf("xprop _NET_ACTIVE_WINDOW: %w", err)
	}
	return parseActiveWindow(string(out))
}

// parseActiveWindow extracts the id from
// "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3a00003".
func parseActiveWindow(output string) (string, error) {
	parts := strings.Fields(output)
	if len(parts) < 5 {
		return "", fmt.Errorf("could not parse window id from %q", strings.TrimSpace(output))
	}
	id := parts[len(parts)-1]
	if id == "0x0" {
		return "", fmt.Errorf("no active window")
	}
	return id, nil
}

// parseWMClass extracts the class from `WM_CLASS(STRING) = "navigator",
// "Firefox"`. A property with a single string yields that string.
func parseWMClass(output string) string {
	idx := strings.Index(output, "=")
	if idx == -1 {
		return ""
	}
	value := strings.TrimSpace(output[idx+1:])
	parts := strings.Split(value, ", ")
	last := parts[len(parts)-1]
	return strings.Trim(last, "\"")
}

// DisplayServer reports "x11", "wayland" or "unknown". XWayland sessions
// count as x11.
func DisplayServer() string {
	if os.Getenv("DISPLAY") != "" {
		return "x11"
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return "wayland"
	}
	return "unknown"
}

// Available reports whether X11 lookups can work, with a reason.
func Available() (bool, string) {
	switch DisplayServer() {
	case "x11":
		if _, err := exec.LookPath("xdotool"); err == nil {
			return true, "X11 window lookup available (xdotool)"
		}
		if _, err := exec.LookPath("xprop"); err == nil {
			return true, "X11 window lookup available (xprop)"
		}
		return false, "X11 detected but xdotool/xprop not found"
	case "wayland":
		return false, "Wayland without XWayland: window classes are not visible, conditional keymaps will not match"
	default:
		return false, "no display server detected"
	}
}

// New returns the classifier for a provider name: "x11" or "none".
func New(provider string, ttl time.Duration, log *logging.Logger) (transform.WindowClassifier, error) {
	switch provider {
	case "x11":
		return NewX11(ttl, log), nil
	case "none", "":
		return Static(""), nil
	default:
		return nil, fmt.Errorf("unknown window provider %q", provider)
	}
}
