package config

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"keysnail/internal/key"
	"keysnail/internal/logging"
	"keysnail/internal/transform"
)

// Skipped records a table entry that was left out of the build.
type Skipped struct {
	Section string
	Entry   string
	Err     error
}

func (s Skipped) String() string {
	return fmt.Sprintf("%s: %q: %v", s.Section, s.Entry, s.Err)
}

type builder struct {
	log     *logging.Logger
	skipped []Skipped
}

func (b *builder) skip(section, entry string, err error) {
	b.skipped = append(b.skipped, Skipped{Section: section, Entry: entry, Err: err})
	b.log.Warn("skipping config entry", "section", section, "entry", entry, "error", err)
}

func (b *builder) skipper(section string) func(string, error) {
	return func(entry string, err error) { b.skip(section, entry, err) }
}

// Build compiles the configuration into engine tables. Entries whose key
// expressions cannot be resolved are logged, returned as Skipped and left
// out. A simultaneous pair conflicting with its declared reverse is fatal.
func (c *Config) Build(log *logging.Logger) (*transform.Tables, []Skipped, error) {
	if log == nil {
		log = logging.Default().WithComponent("config")
	}
	b := &builder{log: log}

	tables := transform.NewTables()
	tables.MultipurposeTimeout = time.Duration(c.Timeouts.MultipurposeMs) * time.Millisecond
	tables.ChordTimeout = time.Duration(c.Timeouts.SimultaneousMs) * time.Millisecond

	tables.ModMap.Default = b.modMap("modmap", c.ModMap)
	for i, cm := range c.ConditionalModMap {
		section := fmt.Sprintf("conditional_modmap[%d]", i)
		cond, err := cm.Predicate.condition()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", section, err)
		}
		tables.ModMap.Conditional = append(tables.ModMap.Conditional, transform.ConditionalModMap{
			Condition: cond,
			Map:       b.modMap(section, cm.Map),
		})
	}

	tables.Multipurpose.Default = b.multipurpose("multipurpose", c.Multipurpose)
	for i, cm := range c.ConditionalMultipurpose {
		section := fmt.Sprintf("conditional_multipurpose[%d]", i)
		cond, err := cm.Predicate.condition()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", section, err)
		}
		tables.Multipurpose.Conditional = append(tables.Multipurpose.Conditional, transform.ConditionalMultipurpose{
			Condition: cond,
			Map:       b.multipurpose(section, cm.Map),
		})
	}

	for i, km := range c.Keymaps {
		name := km.Name
		if name == "" {
			name = fmt.Sprintf("keymap %d", i+1)
		}
		cond, err := Predicate{WindowClass: km.WindowClass, WindowClassNot: km.WindowClassNot}.condition()
		if err != nil {
			return nil, nil, fmt.Errorf("keymap %q: %w", name, err)
		}
		tables.AddKeymap(name, cond, ParseBindings(km.Bindings, b.skipper("keymap "+name)))
	}

	if err := b.simultaneous(tables, &c.Simultaneous); err != nil {
		return nil, nil, err
	}

	return tables, b.skipped, nil
}

func (b *builder) modMap(section string, m map[string]string) transform.ModMap {
	if len(m) == 0 {
		return nil
	}
	out := make(transform.ModMap, len(m))
	for _, from := range sortedKeys(m) {
		src, err := key.ParseKey(from)
		if err != nil {
			b.skip(section, from, err)
			continue
		}
		dst, err := key.ParseKey(m[from])
		if err != nil {
			b.skip(section, from, err)
			continue
		}
		out[src] = dst
	}
	return out
}

func (b *builder) multipurpose(section string, m map[string]MultipurposeConfig) transform.MultipurposeMap {
	if len(m) == 0 {
		return nil
	}
	out := make(transform.MultipurposeMap, len(m))
	for _, name := range sortedKeys(m) {
		src, err := key.ParseKey(name)
		if err != nil {
			b.skip(section, name, err)
			continue
		}
		tap, err := key.ParseKey(m[name].Tap)
		if err != nil {
			b.skip(section, name, err)
			continue
		}
		hold, err := key.ParseKey(m[name].Hold)
		if err != nil {
			b.skip(section, name, err)
			continue
		}
		out[src] = transform.MultipurposeEntry{Tap: tap, Hold: hold}
	}
	return out
}

func (b *builder) simultaneous(tables *transform.Tables, s *SimultaneousConfig) error {
	var toggles []transform.Binding
	if s.EnableKey != "" {
		if combo, err := key.ParseCombo(s.EnableKey); err != nil {
			b.skip("simultaneous", "enable_key", err)
		} else {
			toggles = append(toggles, transform.Binding{Combo: combo, Command: transform.EnableSimultaneous()})
		}
	}
	if s.DisableKey != "" {
		if combo, err := key.ParseCombo(s.DisableKey); err != nil {
			b.skip("simultaneous", "disable_key", err)
		} else {
			toggles = append(toggles, transform.Binding{Combo: combo, Command: transform.DisableSimultaneous()})
		}
	}
	if len(toggles) > 0 {
		tables.AddKeymap("simultaneous toggle", transform.Always, transform.NewMapping(toggles...))
	}

	if s.ToggleOffKey != "" {
		k, err := key.FromName(s.ToggleOffKey)
		if err != nil {
			b.skip("simultaneous", "toggle_off_key", err)
		} else {
			tables.ChordDisableKey = k
		}
	}

	for _, spec := range sortedKeys(s.Pairs) {
		first, second, ok := splitPair(spec)
		if !ok {
			b.skip("simultaneous.pairs", spec, fmt.Errorf("%w: expected \"A+B\"", key.ErrInvalidSpec))
			continue
		}
		a, err := key.ParseKey(first)
		if err != nil {
			b.skip("simultaneous.pairs", spec, err)
			continue
		}
		c, err := key.ParseKey(second)
		if err != nil {
			b.skip("simultaneous.pairs", spec, err)
			continue
		}
		cmd, err := ParseCommand(s.Pairs[spec], b.skipper("simultaneous.pairs "+spec))
		if err != nil {
			b.skip("simultaneous.pairs", spec, err)
			continue
		}
		if err := tables.Chords.AddPair(a, c, cmd); err != nil {
			return fmt.Errorf("simultaneous.pairs %q: %w", spec, err)
		}
	}

	for _, name := range sortedKeys(s.Singles) {
		k, err := key.ParseKey(name)
		if err != nil {
			b.skip("simultaneous.singles", name, err)
			continue
		}
		cmd, err := ParseCommand(s.Singles[name], b.skipper("simultaneous.singles "+name))
		if err != nil {
			b.skip("simultaneous.singles", name, err)
			continue
		}
		tables.Chords.AddSingle(k, cmd)
	}
	return nil
}

func splitPair(spec string) (string, string, bool) {
	first, second, ok := strings.Cut(spec, "+")
	first, second = strings.TrimSpace(first), strings.TrimSpace(second)
	if !ok || first == "" || second == "" || strings.Contains(second, "+") {
		return "", "", false
	}
	return first, second, true
}

// condition compiles the predicate. Window class patterns use search
// semantics; exclusions match exactly.
func (p Predicate) condition() (transform.Condition, error) {
	var windowRe, deviceRe *regexp.Regexp
	var err error
	if p.WindowClass != "" {
		if windowRe, err = regexp.Compile(p.WindowClass); err != nil {
			return transform.Condition{}, fmt.Errorf("window_class: %w", err)
		}
	}
	if p.DeviceName != "" {
		if deviceRe, err = regexp.Compile(p.DeviceName); err != nil {
			return transform.Condition{}, fmt.Errorf("device_name: %w", err)
		}
	}
	excluded := slices.Clone(p.WindowClassNot)

	windowOK := func(class string) bool {
		if windowRe != nil && !windowRe.MatchString(class) {
			return false
		}
		return !slices.Contains(excluded, class)
	}

	switch {
	case deviceRe != nil:
		return transform.DeviceCondition(func(class, device string) bool {
			return windowOK(class) && deviceRe.MatchString(device)
		}), nil
	case windowRe != nil || len(excluded) > 0:
		return transform.WindowCondition(windowOK), nil
	default:
		return transform.Always, nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
