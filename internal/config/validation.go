package config

import (
	"fmt"
	"regexp"
	"strings"

	"keysnail/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig checks everything that can be checked without resolving
// key names. Unknown key names are not validation errors: Build logs and
// skips those entries.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version != Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateTimeouts(&c.Timeouts)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateInput(&c.Input)...)
	errs = append(errs, validateOutput(&c.Output)...)
	errs = append(errs, validateWindow(&c.Window)...)
	errs = append(errs, validateIME(&c.IME)...)
	if c.Control.Enabled && c.Control.Socket == "" {
		errs = append(errs, ValidationError{Field: "control.socket", Message: "required when control is enabled"})
	}

	for i, cm := range c.ConditionalModMap {
		errs = append(errs, validatePredicate(fmt.Sprintf("conditional_modmap[%d]", i), &cm.Predicate)...)
	}
	for i, cm := range c.ConditionalMultipurpose {
		errs = append(errs, validatePredicate(fmt.Sprintf("conditional_multipurpose[%d]", i), &cm.Predicate)...)
	}
	for i, km := range c.Keymaps {
		field := fmt.Sprintf("keymap[%d]", i)
		errs = append(errs, validatePredicate(field, &Predicate{
			WindowClass:    km.WindowClass,
			WindowClassNot: km.WindowClassNot,
		})...)
	}

	for spec := range c.Simultaneous.Pairs {
		if _, _, ok := splitPair(spec); !ok {
			errs = append(errs, ValidationError{
				Field:   "simultaneous.pairs",
				Message: fmt.Sprintf("%q is not of the form \"A+B\"", spec),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateTimeouts(t *TimeoutsConfig) ValidationErrors {
	var errs ValidationErrors
	if t.MultipurposeMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "timeouts.multipurpose_ms",
			Message: "must be a positive number of milliseconds",
		})
	}
	if t.SimultaneousMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "timeouts.simultaneous_ms",
			Message: "must be a positive number of milliseconds",
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	if _, err := logging.ParseLevel(l.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(l.Format); err != nil {
		errs = append(errs, ValidationError{Field: "logging.format", Message: err.Error()})
	}
	switch strings.ToLower(l.Output) {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "required when output includes a file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid output %q (must be stdout, stderr, file or both)", l.Output),
		})
	}
	return errs
}

func validateInput(in *InputConfig) ValidationErrors {
	var errs ValidationErrors
	if in.DeviceFilter != "" {
		if _, err := regexp.Compile(in.DeviceFilter); err != nil {
			errs = append(errs, ValidationError{Field: "input.device_filter", Message: err.Error()})
		}
	}
	return errs
}

func validateOutput(o *OutputConfig) ValidationErrors {
	var errs ValidationErrors
	switch o.Backend {
	case "uinput", "evdev":
	default:
		errs = append(errs, ValidationError{
			Field:   "output.backend",
			Message: fmt.Sprintf("invalid backend %q (must be uinput or evdev)", o.Backend),
		})
	}
	if o.Name == "" {
		errs = append(errs, ValidationError{Field: "output.name", Message: "must not be empty"})
	}
	return errs
}

func validateWindow(w *WindowConfig) ValidationErrors {
	var errs ValidationErrors
	switch w.Provider {
	case "x11", "none":
	default:
		errs = append(errs, ValidationError{
			Field:   "window.provider",
			Message: fmt.Sprintf("invalid provider %q (must be x11 or none)", w.Provider),
		})
	}
	if w.CacheMs < 0 {
		errs = append(errs, ValidationError{Field: "window.cache_ms", Message: "must not be negative"})
	}
	return errs
}

func validateIME(i *IMEConfig) ValidationErrors {
	if !i.Enabled {
		return nil
	}
	var errs ValidationErrors
	switch i.Service {
	case "fcitx5", "fcitx":
	default:
		errs = append(errs, ValidationError{
			Field:   "ime.service",
			Message: fmt.Sprintf("invalid service %q (must be fcitx5 or fcitx)", i.Service),
		})
	}
	if _, err := regexp.Compile(i.Match); err != nil {
		errs = append(errs, ValidationError{Field: "ime.match", Message: err.Error()})
	}
	return errs
}

func validatePredicate(field string, p *Predicate) ValidationErrors {
	var errs ValidationErrors
	if p.WindowClass != "" {
		if _, err := regexp.Compile(p.WindowClass); err != nil {
			errs = append(errs, ValidationError{Field: field + ".window_class", Message: err.Error()})
		}
	}
	if p.DeviceName != "" {
		if _, err := regexp.Compile(p.DeviceName); err != nil {
			errs = append(errs, ValidationError{Field: field + ".device_name", Message: err.Error()})
		}
	}
	return errs
}
