package config

import (
	"fmt"
	"os"
	"path/filepath"

	"keysnail/internal/logging"
)

// DefaultConfig returns a configuration with no mappings and default
// ambient settings.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Timeouts: TimeoutsConfig{
			MultipurposeMs: 1000,
			SimultaneousMs: 200,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   logging.DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Input: InputConfig{
			Grab: true,
		},
		Output: OutputConfig{
			Backend: "uinput",
			Name:    "keysnail",
		},
		Window: WindowConfig{
			Provider: "x11",
			CacheMs:  50,
		},
		IME: IMEConfig{
			Service: "fcitx5",
			CacheMs: 500,
		},
		Control: ControlConfig{
			Enabled: true,
			Socket:  SocketPath(),
		},
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/keysnail, or ~/.config/keysnail.
func ConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "keysnail")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "keysnail")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// RuntimeDir returns $XDG_RUNTIME_DIR/keysnail, or a per-user directory under
// the system temp dir.
func RuntimeDir() string {
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "keysnail")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("keysnail-%d", os.Getuid()))
}

// SocketPath returns the default control socket path.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "control.sock")
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{"toml", "yaml", "yml", "json"}
}

// FindConfigFile searches the current directory and then the config
// directory for config.<ext>. It returns "" when none exists.
func FindConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
