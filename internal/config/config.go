// Package config handles configuration loading, validation and compilation
// for keysnail.
//
// A configuration document describes the modmaps, multipurpose keys,
// keymaps and simultaneous chords the engine runs on, plus the daemon's
// ambient settings. It may be written in TOML, YAML or JSON. Loading goes
// through three checks: the raw document against the embedded JSON schema,
// the decoded Config through Validate, and finally Build, which resolves
// every key expression and compiles transform.Tables.
package config

import (
	"os"
	"strings"

	"keysnail/internal/logging"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	Timeouts TimeoutsConfig `toml:"timeouts" json:"timeouts" yaml:"timeouts"`
	Logging  LoggingConfig  `toml:"logging" json:"logging" yaml:"logging"`
	Input    InputConfig    `toml:"input" json:"input" yaml:"input"`
	Output   OutputConfig   `toml:"output" json:"output" yaml:"output"`
	Window   WindowConfig   `toml:"window" json:"window" yaml:"window"`
	IME      IMEConfig      `toml:"ime" json:"ime" yaml:"ime"`
	Control  ControlConfig  `toml:"control" json:"control" yaml:"control"`

	// ModMap maps physical key names to the key they should act as.
	ModMap map[string]string `toml:"modmap" json:"modmap" yaml:"modmap"`

	// ConditionalModMap overrides ModMap, first match wins.
	ConditionalModMap []ConditionalModMapConfig `toml:"conditional_modmap" json:"conditional_modmap" yaml:"conditional_modmap"`

	// Multipurpose maps a key name to its tap and hold meaning.
	Multipurpose map[string]MultipurposeConfig `toml:"multipurpose" json:"multipurpose" yaml:"multipurpose"`

	ConditionalMultipurpose []ConditionalMultipurposeConfig `toml:"conditional_multipurpose" json:"conditional_multipurpose" yaml:"conditional_multipurpose"`

	// Keymaps in definition order.
	Keymaps []KeymapConfig `toml:"keymap" json:"keymap" yaml:"keymap"`

	Simultaneous SimultaneousConfig `toml:"simultaneous" json:"simultaneous" yaml:"simultaneous"`
}

// TimeoutsConfig holds the engine timing windows in milliseconds.
type TimeoutsConfig struct {
	// MultipurposeMs is how long a multipurpose key may be held and still
	// count as a tap.
	MultipurposeMs int `toml:"multipurpose_ms" json:"multipurpose_ms" yaml:"multipurpose_ms"`

	// SimultaneousMs is the window within which two keys form a chord.
	SimultaneousMs int `toml:"simultaneous_ms" json:"simultaneous_ms" yaml:"simultaneous_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is where logs go: "stdout", "stderr", "file", "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// InputConfig selects the keyboards to grab.
type InputConfig struct {
	// Devices lists explicit /dev/input/event* paths. When empty every
	// device that looks like a keyboard is used.
	Devices []string `toml:"devices" json:"devices" yaml:"devices"`

	// DeviceFilter is a regular expression matched against device names.
	DeviceFilter string `toml:"device_filter" json:"device_filter" yaml:"device_filter"`

	// Grab takes exclusive access so raw events do not reach applications.
	Grab bool `toml:"grab" json:"grab" yaml:"grab"`
}

// OutputConfig configures the virtual keyboard.
type OutputConfig struct {
	// Backend is "uinput" or "evdev".
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	// Name is the name of the virtual device.
	Name string `toml:"name" json:"name" yaml:"name"`
}

// WindowConfig configures active window class lookup.
type WindowConfig struct {
	// Provider is "x11" or "none".
	Provider string `toml:"provider" json:"provider" yaml:"provider"`

	// CacheMs caches the class for this long between lookups.
	CacheMs int `toml:"cache_ms" json:"cache_ms" yaml:"cache_ms"`
}

// IMEConfig configures the input method probe that gates chord detection.
type IMEConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Service is "fcitx5" or "fcitx".
	Service string `toml:"service" json:"service" yaml:"service"`

	// Match is a regular expression the current input method name must
	// match for chords to be detected.
	Match string `toml:"match" json:"match" yaml:"match"`

	// CacheMs caches the probe result for this long.
	CacheMs int `toml:"cache_ms" json:"cache_ms" yaml:"cache_ms"`
}

// ControlConfig configures the daemon's control socket.
type ControlConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Socket is the Unix socket path keysnailctl connects to.
	Socket string `toml:"socket" json:"socket" yaml:"socket"`
}

// Predicate restricts a conditional table to some windows or devices.
type Predicate struct {
	// WindowClass is a regular expression searched in the window class.
	WindowClass string `toml:"window_class" json:"window_class" yaml:"window_class"`

	// WindowClassNot lists window classes (exact match) that are excluded.
	WindowClassNot []string `toml:"window_class_not" json:"window_class_not" yaml:"window_class_not"`

	// DeviceName is a regular expression searched in the input device name.
	DeviceName string `toml:"device_name" json:"device_name" yaml:"device_name"`
}

// ConditionalModMapConfig is a modmap applied under a predicate.
type ConditionalModMapConfig struct {
	Predicate `yaml:",inline"`
	Map       map[string]string `toml:"map" json:"map" yaml:"map"`
}

// MultipurposeConfig is the tap and hold meaning of a key.
type MultipurposeConfig struct {
	Tap  string `toml:"tap" json:"tap" yaml:"tap"`
	Hold string `toml:"hold" json:"hold" yaml:"hold"`
}

// ConditionalMultipurposeConfig is a multipurpose table applied under a
// predicate.
type ConditionalMultipurposeConfig struct {
	Predicate `yaml:",inline"`
	Map       map[string]MultipurposeConfig `toml:"map" json:"map" yaml:"map"`
}

// KeymapConfig is a named keymap.
type KeymapConfig struct {
	Name           string   `toml:"name" json:"name" yaml:"name"`
	WindowClass    string   `toml:"window_class" json:"window_class" yaml:"window_class"`
	WindowClassNot []string `toml:"window_class_not" json:"window_class_not" yaml:"window_class_not"`

	// Bindings maps key expressions to command expressions. A value is a
	// string, a list (sequence) or a table (submap).
	Bindings map[string]any `toml:"bindings" json:"bindings" yaml:"bindings"`
}

// SimultaneousConfig declares the chord layout.
type SimultaneousConfig struct {
	// EnableKey and DisableKey are key expressions bound, in every window,
	// to turning chord mode on and off.
	EnableKey  string `toml:"enable_key" json:"enable_key" yaml:"enable_key"`
	DisableKey string `toml:"disable_key" json:"disable_key" yaml:"disable_key"`

	// ToggleOffKey is a physical key that turns chord mode off whenever it
	// is pressed.
	ToggleOffKey string `toml:"toggle_off_key" json:"toggle_off_key" yaml:"toggle_off_key"`

	// Pairs maps "A+B" to a command expression.
	Pairs map[string]any `toml:"pairs" json:"pairs" yaml:"pairs"`

	// Singles maps a key to the command it produces typed alone.
	Singles map[string]any `toml:"singles" json:"singles" yaml:"singles"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Variables are prefixed with KEYSNAIL_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KEYSNAIL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KEYSNAIL_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("KEYSNAIL_OUTPUT_BACKEND"); v != "" {
		c.Output.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("KEYSNAIL_WINDOW_PROVIDER"); v != "" {
		c.Window.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("KEYSNAIL_CONTROL_SOCKET"); v != "" {
		c.Control.Socket = v
	}
}

// LoggerConfig converts the logging section for logging.New.
func (l LoggingConfig) LoggerConfig(component string) (*logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = strings.ToLower(l.Output)
	if l.FilePath != "" {
		cfg.FilePath = l.FilePath
	}
	if l.MaxSizeMB > 0 {
		cfg.MaxSize = int64(l.MaxSizeMB)
	}
	cfg.MaxBackups = l.MaxBackups
	if component != "" {
		cfg.Component = component
	}
	return cfg, nil
}
