package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"keysnail/internal/key"
	"keysnail/internal/transform"
)

// ErrUnknownCommand is returned for a function-style command expression
// with an unknown name or malformed argument.
var ErrUnknownCommand = errors.New("unknown command")

var callPattern = regexp.MustCompile(`^([a-z_]+)\((.*)\)$`)

// ParseCommand compiles a command expression: a string, a list of
// expressions (a sequence) or a table of bindings (a submap). Bad bindings
// inside a submap are reported through skip and left out.
func ParseCommand(v any, skip func(entry string, err error)) (transform.Command, error) {
	switch val := v.(type) {
	case string:
		return parseCommandString(val)
	case []any:
		seq := make(transform.Sequence, 0, len(val))
		for _, elem := range val {
			cmd, err := ParseCommand(elem, skip)
			if err != nil {
				return nil, err
			}
			seq = append(seq, cmd)
		}
		return seq, nil
	case []string:
		seq := make(transform.Sequence, 0, len(val))
		for _, elem := range val {
			cmd, err := parseCommandString(elem)
			if err != nil {
				return nil, err
			}
			seq = append(seq, cmd)
		}
		return seq, nil
	case map[string]any:
		return transform.EnterSubmap{Mapping: ParseBindings(val, skip)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value of type %T", ErrUnknownCommand, v)
	}
}

// ParseBindings compiles a table of key expression to command expression.
// Entries that fail are reported through skip and left out.
func ParseBindings(bindings map[string]any, skip func(entry string, err error)) *transform.Mapping {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]transform.Binding, 0, len(names))
	for _, name := range names {
		combo, err := key.ParseCombo(name)
		if err != nil {
			skip(name, err)
			continue
		}
		cmd, err := ParseCommand(bindings[name], func(entry string, err error) {
			skip(name+" "+entry, err)
		})
		if err != nil {
			skip(name, err)
			continue
		}
		out = append(out, transform.Binding{Combo: combo, Command: cmd})
	}
	return transform.NewMapping(out...)
}

func parseCommandString(s string) (transform.Command, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "escape_next":
		return transform.EscapeNext, nil
	case "pass_through":
		return transform.PassThrough, nil
	case "enable_simultaneous":
		return transform.EnableSimultaneous(), nil
	case "disable_simultaneous":
		return transform.DisableSimultaneous(), nil
	}

	if m := callPattern.FindStringSubmatch(s); m != nil {
		return parseCall(m[1], strings.TrimSpace(m[2]))
	}

	combo, err := key.ParseCombo(s)
	if err != nil {
		return nil, err
	}
	if combo.Mods.Len() == 0 {
		return transform.EmitKey{Key: combo.Key}, nil
	}
	return transform.EmitCombo{Combo: combo}, nil
}

func parseCall(name, arg string) (transform.Command, error) {
	switch name {
	case "set_mark":
		on, err := strconv.ParseBool(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: set_mark(%s)", ErrUnknownCommand, arg)
		}
		return transform.SetMark(on), nil
	case "with_mark", "with_or_set_mark":
		combo, err := key.ParseCombo(arg)
		if err != nil {
			return nil, err
		}
		if name == "with_mark" {
			return transform.WithMark(combo), nil
		}
		return transform.WithOrSetMark(combo), nil
	case "launch":
		argv := strings.Fields(arg)
		if len(argv) == 0 {
			return nil, fmt.Errorf("%w: launch needs a command", ErrUnknownCommand)
		}
		return transform.Launch(argv...), nil
	case "sleep":
		sec, err := strconv.ParseFloat(arg, 64)
		if err != nil || sec < 0 {
			return nil, fmt.Errorf("%w: sleep(%s)", ErrUnknownCommand, arg)
		}
		return transform.Sleep(time.Duration(sec * float64(time.Second))), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}
