package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keysnail/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Version != Version {
		t.Errorf("expected version %d, got %d", Version, cfg.Version)
	}
	if cfg.Timeouts.MultipurposeMs != 1000 {
		t.Errorf("expected multipurpose timeout 1000, got %d", cfg.Timeouts.MultipurposeMs)
	}
	if cfg.Timeouts.SimultaneousMs != 200 {
		t.Errorf("expected simultaneous timeout 200, got %d", cfg.Timeouts.SimultaneousMs)
	}
	if !cfg.Input.Grab {
		t.Error("expected devices to be grabbed by default")
	}
	if cfg.Output.Backend != "uinput" {
		t.Errorf("expected uinput backend, got %s", cfg.Output.Backend)
	}
	if !strings.Contains(cfg.Logging.FilePath, "keysnail") {
		t.Errorf("log path should contain keysnail: %s", cfg.Logging.FilePath)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if got := ConfigDir(); got != "/tmp/xdg/keysnail" {
		t.Errorf("unexpected config dir %s", got)
	}
	if got := ConfigPath(); got != "/tmp/xdg/keysnail/config.toml" {
		t.Errorf("unexpected config path %s", got)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	if got := FindConfigFile(); got != "" {
		t.Errorf("expected no config file, got %s", got)
	}

	path := filepath.Join(dir, "keysnail", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("version: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if !errors.Is(err, ErrNoConfig) {
		t.Fatalf("expected ErrNoConfig, got %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.Timeouts.MultipurposeMs != 1000 {
		t.Errorf("expected defaults, got multipurpose timeout %d", cfg.Timeouts.MultipurposeMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYSNAIL_LOG_LEVEL", "debug")
	t.Setenv("KEYSNAIL_LOG_PATH", "/tmp/keysnail-test.log")
	t.Setenv("KEYSNAIL_OUTPUT_BACKEND", "EVDEV")
	t.Setenv("KEYSNAIL_WINDOW_PROVIDER", "none")
	t.Setenv("KEYSNAIL_CONTROL_SOCKET", "/tmp/keysnail-test.sock")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.FilePath != "/tmp/keysnail-test.log" {
		t.Errorf("unexpected log path %s", cfg.Logging.FilePath)
	}
	if cfg.Output.Backend != "evdev" {
		t.Errorf("expected evdev backend, got %s", cfg.Output.Backend)
	}
	if cfg.Window.Provider != "none" {
		t.Errorf("expected no window provider, got %s", cfg.Window.Provider)
	}
	if cfg.Control.Socket != "/tmp/keysnail-test.sock" {
		t.Errorf("unexpected control socket %s", cfg.Control.Socket)
	}
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := SocketPath(); got != "/run/user/1000/keysnail/control.sock" {
		t.Errorf("unexpected socket path %s", got)
	}

	t.Setenv("XDG_RUNTIME_DIR", "")
	if got := SocketPath(); !strings.HasSuffix(got, "/control.sock") || !strings.Contains(got, "keysnail-") {
		t.Errorf("unexpected fallback socket path %s", got)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 2 }, "version"},
		{"zero multipurpose timeout", func(c *Config) { c.Timeouts.MultipurposeMs = 0 }, "timeouts.multipurpose_ms"},
		{"negative chord timeout", func(c *Config) { c.Timeouts.SimultaneousMs = -5 }, "timeouts.simultaneous_ms"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"file output without path", func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, "logging.file_path"},
		{"bad device filter", func(c *Config) { c.Input.DeviceFilter = "([" }, "input.device_filter"},
		{"bad backend", func(c *Config) { c.Output.Backend = "xtest" }, "output.backend"},
		{"empty device name", func(c *Config) { c.Output.Name = "" }, "output.name"},
		{"bad window provider", func(c *Config) { c.Window.Provider = "wayland" }, "window.provider"},
		{"bad ime service", func(c *Config) {
			c.IME.Enabled = true
			c.IME.Service = "ibus"
		}, "ime.service"},
		{"bad keymap regex", func(c *Config) {
			c.Keymaps = []KeymapConfig{{Name: "x", WindowClass: "(("}}
		}, "keymap[0].window_class"},
		{"bad conditional device regex", func(c *Config) {
			c.ConditionalModMap = []ConditionalModMapConfig{{Predicate: Predicate{DeviceName: "[z-a]"}}}
		}, "conditional_modmap[0].device_name"},
		{"control without socket", func(c *Config) { c.Control.Socket = "" }, "control.socket"},
		{"malformed pair", func(c *Config) {
			c.Simultaneous.Pairs = map[string]any{"J": "a"}
		}, "simultaneous.pairs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestSplitPair(t *testing.T) {
	tests := []struct {
		spec          string
		first, second string
		ok            bool
	}{
		{"J+D", "J", "D", true},
		{" j + d ", "j", "d", true},
		{"J", "", "", false},
		{"J+", "", "", false},
		{"+D", "", "", false},
		{"J+D+K", "", "", false},
	}
	for _, tt := range tests {
		first, second, ok := splitPair(tt.spec)
		if ok != tt.ok || first != tt.first || second != tt.second {
			t.Errorf("splitPair(%q) = %q, %q, %v", tt.spec, first, second, ok)
		}
	}
}

func TestLoggerConfig(t *testing.T) {
	lc := LoggingConfig{Level: "warn", Format: "json", Output: "FILE", FilePath: "/tmp/k.log", MaxSizeMB: 5, MaxBackups: 1}
	cfg, err := lc.LoggerConfig("keysnaild")
	if err != nil {
		t.Fatalf("LoggerConfig failed: %v", err)
	}
	if cfg.Level != logging.LevelWarn || cfg.Format != logging.FormatJSON {
		t.Errorf("unexpected level/format %v/%v", cfg.Level, cfg.Format)
	}
	if cfg.Output != "file" || cfg.FilePath != "/tmp/k.log" || cfg.MaxSize != 5 || cfg.MaxBackups != 1 {
		t.Errorf("unexpected output settings %+v", cfg)
	}
	if cfg.Component != "keysnaild" {
		t.Errorf("unexpected component %s", cfg.Component)
	}

	if _, err := (LoggingConfig{Level: "loud"}).LoggerConfig(""); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
