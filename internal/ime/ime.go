// Package ime probes the desktop input method over D-Bus.
//
// The daemon uses it as the chord gate: simultaneous chords are only
// detected while the current input method name matches a pattern, e.g.
// while a Japanese IME is active.
package ime

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"keysnail/internal/logging"
)

// ErrUnknownService is returned for an unsupported input method framework.
var ErrUnknownService = errors.New("unknown input method service")

// ProbeTimeout bounds one input method query. Gate.Open runs on the event
// loop, so a wedged input method must not hold up key events.
const ProbeTimeout = 50 * time.Millisecond

// ErrProbeTimeout is returned when the input method does not answer within
// the probe timeout.
var ErrProbeTimeout = errors.New("input method probe timed out")

// Prober returns the name of the current input method.
type Prober interface {
	CurrentInputMethod(ctx context.Context) (string, error)
}

// endpoint is where a framework answers the current input method query.
type endpoint struct {
	dest   string
	path   dbus.ObjectPath
	method string
}

var endpoints = map[string]endpoint{
	"fcitx5": {
		dest:   "org.fcitx.Fcitx5",
		path:   "/controller",
		method: "org.fcitx.Fcitx.Controller1.CurrentInputMethod",
	},
	"fcitx": {
		dest:   "org.fcitx.Fcitx",
		path:   "/inputmethod",
		method: "org.fcitx.Fcitx.InputMethod.GetCurrentIM",
	},
}

// DBusProber queries fcitx5 or fcitx on the session bus.
type DBusProber struct {
	conn *dbus.Conn
	ep   endpoint
}

// NewDBusProber connects to the session bus for service ("fcitx5" or
// "fcitx").
func NewDBusProber(service string) (*DBusProber, error) {
	ep, ok := endpoints[service]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBusProber{conn: conn, ep: ep}, nil
}

// CurrentInputMethod calls the framework's current input method method.
func (p *DBusProber) CurrentInputMethod(ctx context.Context) (string, error) {
	var name string
	call := p.conn.Object(p.ep.dest, p.ep.path).CallWithContext(ctx, p.ep.method, 0)
	if err := call.Store(&name); err != nil {
		return "", fmt.Errorf("%s: %w", p.ep.method, err)
	}
	return name, nil
}

// Close closes the bus connection.
func (p *DBusProber) Close() error {
	return p.conn.Close()
}

// Gate reports whether the current input method matches a pattern. Probe
// results are cached for ttl; a failed probe closes the gate.
type Gate struct {
	prober  Prober
	match   *regexp.Regexp
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *logging.Logger

	mu      sync.Mutex
	open    bool
	name    string
	fetched time.Time
	valid   bool
}

// NewGate builds a gate over p. An empty pattern matches any input method.
func NewGate(p Prober, pattern string, ttl time.Duration, log *logging.Logger) (*Gate, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("input method pattern: %w", err)
	}
	if log == nil {
		log = logging.Default().WithComponent("ime")
	}
	return &Gate{prober: p, match: re, ttl: ttl, timeout: ProbeTimeout, now: time.Now, log: log}, nil
}

// Open reports whether chords may be detected now.
func (g *Gate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.valid && g.ttl > 0 && now.Sub(g.fetched) < g.ttl {
		return g.open
	}

	name, err := g.probe()
	open := err == nil && g.match.MatchString(name)
	if err != nil {
		g.log.Debug("input method probe failed", "error", err)
	} else if name != g.name || !g.valid {
		g.log.Debug("input method", "name", name, "chords", open)
	}
	g.open, g.name, g.fetched, g.valid = open, name, now, true
	return open
}

// probe queries the prober with a deadline. A prober that ignores its
// context is abandoned when the deadline passes; its late answer is dropped.
func (g *Gate) probe() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		name, err := g.prober.CurrentInputMethod(ctx)
		done <- result{name, err}
	}()

	select {
	case r := <-done:
		return r.name, r.err
	case <-ctx.Done():
		return "", ErrProbeTimeout
	}
}

// Current returns the last probed input method name.
func (g *Gate) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.name
}
