// keysnailctl is the companion CLI for keysnaild.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"keysnail/internal/config"
	"keysnail/internal/input"
	"keysnail/internal/ipc"
	"keysnail/internal/key"
	"keysnail/internal/logging"
	"keysnail/internal/window"
)

var (
	configPath = flag.String("config", "", "path to config file")
	socketPath = flag.String("socket", "", "path to the daemon's control socket")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)

	var err error
	switch cmd {
	case "check":
		err = cmdCheck(os.Stdout, *configPath)
	case "keys":
		cmdKeys(os.Stdout, flag.Arg(1))
	case "devices":
		err = cmdDevices(os.Stdout)
	case "window":
		cmdWindow(os.Stdout)
	case "status":
		err = withClient(func(ctx context.Context, c *ipc.Client) error {
			return cmdStatus(ctx, os.Stdout, c)
		})
	case "health":
		err = withClient(func(ctx context.Context, c *ipc.Client) error {
			return cmdHealth(ctx, os.Stdout, c)
		})
	case "metrics":
		err = withClient(func(ctx context.Context, c *ipc.Client) error {
			return cmdMetrics(ctx, os.Stdout, c)
		})
	case "reload":
		err = withClient(func(ctx context.Context, c *ipc.Client) error {
			return cmdReload(ctx, os.Stdout, c)
		})
	case "simultaneous":
		err = withClient(func(ctx context.Context, c *ipc.Client) error {
			return cmdSimultaneous(ctx, os.Stdout, c, flag.Arg(1))
		})
	case "schema":
		os.Stdout.Write(config.SchemaJSON())
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `keysnailctl - Companion utility for keysnaild

Usage: keysnailctl [options] <command> [args]

Commands:
  check           Load, schema-check and compile the config file
  keys [filter]   List key names usable in key expressions
  devices         List input devices and whether they look like keyboards
  window          Print the class of the focused window
  schema          Print the JSON schema for config files
  help            Show this help message

Daemon commands (over the control socket):
  status              Show the running daemon's state
  health              Run the daemon's health checks; fails when unhealthy
  metrics             Print daemon metrics in Prometheus text format
  reload              Make the daemon re-read its config file
  simultaneous on|off Turn simultaneous chord mode on or off

Options:
  -config <path>  Path to config file (default: ~/.config/keysnail/config.toml)
  -socket <path>  Control socket (default: from config, else $XDG_RUNTIME_DIR/keysnail/control.sock)`)
}

func cmdCheck(w io.Writer, path string) error {
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		path = config.ConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrNoConfig) {
			return fmt.Errorf("no config file at %s", path)
		}
		return err
	}

	tables, skipped, err := cfg.Build(logging.Discard())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Config: %s\n", path)
	fmt.Fprintf(w, "  Modmap entries:       %d (+%d conditional tables)\n", len(tables.ModMap.Default), len(tables.ModMap.Conditional))
	fmt.Fprintf(w, "  Multipurpose keys:    %d (+%d conditional tables)\n", len(tables.Multipurpose.Default), len(tables.Multipurpose.Conditional))
	fmt.Fprintf(w, "  Keymaps:              %d\n", len(tables.Keymaps))
	for _, km := range tables.Keymaps {
		fmt.Fprintf(w, "    %-28s %d bindings\n", km.Name, len(km.Mapping.Bindings()))
	}
	fmt.Fprintf(w, "  Simultaneous entries: %d\n", tables.Chords.Len())
	fmt.Fprintf(w, "  Timeouts:             multipurpose %s, simultaneous %s\n",
		tables.MultipurposeTimeout.Round(time.Millisecond), tables.ChordTimeout.Round(time.Millisecond))

	if len(skipped) == 0 {
		fmt.Fprintln(w, "OK")
		return nil
	}
	fmt.Fprintf(w, "Skipped %d entries:\n", len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(w, "  %s\n", s)
	}
	return nil
}

func cmdKeys(w io.Writer, filter string) {
	filter = strings.ToUpper(filter)
	for _, name := range key.Names() {
		if filter == "" || strings.Contains(name, filter) {
			fmt.Fprintln(w, name)
		}
	}
}

func cmdDevices(w io.Writer) error {
	infos, err := input.Discover()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return fmt.Errorf("no readable input devices (need the input group or root)")
	}
	for _, info := range infos {
		kind := ""
		if info.Keyboard {
			kind = "keyboard"
		}
		fmt.Fprintf(w, "%-22s %-9s %s\n", info.Path, kind, info.Name)
	}
	return nil
}

func cmdWindow(w io.Writer) {
	ok, reason := window.Available()
	fmt.Fprintln(w, reason)
	if !ok {
		return
	}
	class := window.NewX11(0, logging.Discard()).ActiveWindowClass()
	fmt.Fprintf(w, "Window class: %q\n", class)
}

// controlSocket resolves the socket path: -socket, then the config file,
// then the default.
func controlSocket() string {
	if *socketPath != "" {
		return *socketPath
	}
	path := *configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		if cfg, err := config.Load(path); err == nil && cfg.Control.Socket != "" {
			return cfg.Control.Socket
		}
	}
	return config.SocketPath()
}

func withClient(fn func(context.Context, *ipc.Client) error) error {
	c, err := ipc.Dial(controlSocket(), 5*time.Second)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return fn(ctx, c)
}

func cmdStatus(ctx context.Context, w io.Writer, c *ipc.Client) error {
	st, err := c.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "keysnaild %s, up %s\n", st.Version, st.Uptime)
	fmt.Fprintf(w, "  Config:        %s\n", st.ConfigPath)
	fmt.Fprintf(w, "  Output:        %s\n", st.Output)
	fmt.Fprintf(w, "  Devices:       %d\n", len(st.Devices))
	for _, dev := range st.Devices {
		fmt.Fprintf(w, "    %s\n", dev)
	}
	fmt.Fprintf(w, "  Window class:  %q\n", st.WindowClass)
	fmt.Fprintf(w, "  Keymaps:       %s\n", strings.Join(st.Keymaps, ", "))
	fmt.Fprintf(w, "  Mode:          %s\n", st.Mode)
	fmt.Fprintf(w, "  Mark:          %s\n", onOff(st.Mark))
	fmt.Fprintf(w, "  Simultaneous:  %s (%d entries)\n", onOff(st.Simultaneous), st.Chords)
	fmt.Fprintf(w, "  Events:        %d\n", st.Events)
	fmt.Fprintf(w, "  Output errors: %d\n", st.OutputErrors)
	fmt.Fprintf(w, "  Reloads:       %d (%d entries skipped)\n", st.Reloads, st.Skipped)
	return nil
}

func cmdHealth(ctx context.Context, w io.Writer, c *ipc.Client) error {
	rep, err := c.Health(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Status: %s\n", rep.Status)
	for _, comp := range rep.Components {
		critical := ""
		if comp.Critical {
			critical = " (critical)"
		}
		fmt.Fprintf(w, "  %-12s %-10s%s", comp.Name, comp.Status, critical)
		if comp.Message != "" {
			fmt.Fprintf(w, " %s", comp.Message)
		}
		fmt.Fprintln(w)
	}
	if rep.Status == "unhealthy" {
		return errors.New("daemon is unhealthy")
	}
	return nil
}

func cmdMetrics(ctx context.Context, w io.Writer, c *ipc.Client) error {
	text, err := c.Metrics(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

func cmdReload(ctx context.Context, w io.Writer, c *ipc.Client) error {
	resp, err := c.Reload(ctx)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("reload rejected: %s", resp.Error)
	}
	fmt.Fprintln(w, "Config reloaded")
	for _, s := range resp.Skipped {
		fmt.Fprintf(w, "  skipped %s\n", s)
	}
	return nil
}

func cmdSimultaneous(ctx context.Context, w io.Writer, c *ipc.Client, arg string) error {
	var on bool
	switch arg {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("usage: keysnailctl simultaneous on|off")
	}
	resp, err := c.SetSimultaneous(ctx, on)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Simultaneous mode %s\n", onOff(resp.Enabled))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
