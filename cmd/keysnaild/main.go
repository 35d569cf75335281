// keysnaild - keyboard remapping daemon
//
// keysnaild grabs the configured keyboards, runs every key event through
// the modmap, multipurpose, chord and keymap stages and emits the result on
// a virtual keyboard:
//
//	keysnaild                       Run with ~/.config/keysnail/config.toml
//	keysnaild -config my.yaml -watch
//	keysnaild -devices /dev/input/event3,/dev/input/event7
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"keysnail/internal/config"
	"keysnail/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	configPath = flag.String("config", "", "path to config file (default: search . and ~/.config/keysnail)")
	watch      = flag.Bool("watch", false, "reload the config file when it changes")
	quiet      = flag.Bool("quiet", false, "only log warnings and errors")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error")
	devices    = flag.String("devices", "", "comma-separated input device paths")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "keysnaild: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `keysnaild - keyboard remapping daemon

Usage: keysnaild [options]

Options:
  -config <path>      Path to config file (TOML, YAML or JSON)
  -watch              Reload the config file when it changes
  -quiet              Only log warnings and errors
  -log-level <level>  Log level: debug, info, warn, error
  -devices <paths>    Comma-separated input devices (default: all keyboards)

Environment:
  KEYSNAIL_LOG_LEVEL, KEYSNAIL_LOG_PATH, KEYSNAIL_OUTPUT_BACKEND,
  KEYSNAIL_WINDOW_PROVIDER, KEYSNAIL_CONTROL_SOCKET override the config file.

Reading /dev/input and writing /dev/uinput usually needs membership in the
input group, or root.`)
}

func run() error {
	path := *configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	loader := config.NewLoader(path)
	defer loader.Close()

	cfg, err := loader.Load()
	noConfig := errors.Is(err, config.ErrNoConfig)
	if err != nil && !noConfig {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Close()
	logging.SetDefault(log)

	if noConfig {
		log.Warn("no config file, keys pass through unchanged", "path", loader.Path())
	}

	opts := daemonOptions{
		devices: splitList(*devices),
		watch:   *watch && !noConfig,
	}
	if cfg.Control.Enabled {
		opts.control = cfg.Control.Socket
	}
	d, err := newDaemon(cfg, loader, log, opts)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}

func newLogger(lc config.LoggingConfig) (*logging.Logger, error) {
	if *logLevel != "" {
		lc.Level = *logLevel
	}
	lcfg, err := lc.LoggerConfig("keysnaild")
	if err != nil {
		return nil, err
	}
	if *quiet && lcfg.Level < logging.LevelWarn {
		lcfg.Level = logging.LevelWarn
	}
	return logging.New(lcfg)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
