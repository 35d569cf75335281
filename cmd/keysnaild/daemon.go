package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"keysnail/internal/config"
	"keysnail/internal/health"
	"keysnail/internal/ime"
	"keysnail/internal/input"
	"keysnail/internal/ipc"
	"keysnail/internal/key"
	"keysnail/internal/logging"
	"keysnail/internal/metrics"
	"keysnail/internal/output"
	"keysnail/internal/transform"
	"keysnail/internal/window"
)

type daemonOptions struct {
	devices []string
	watch   bool
	// control is the control socket path; empty disables it.
	control string
}

// keyReader is the part of input.Reader the daemon uses.
type keyReader interface {
	Run(ctx context.Context, events chan<- key.Event) error
	Close()
}

// keySink is the part of output.Sink the daemon uses.
type keySink interface {
	transform.Output
	Errors() uint64
	Close() error
}

type daemon struct {
	log     *logging.Logger
	loader  *config.Loader
	watch   bool
	windows transform.WindowClassifier
	gate    func() bool
	sink    keySink
	reader  keyReader
	engine  *transform.Engine
	reloads chan *config.Config
	closers []func() error

	controls chan control
	metrics  *metrics.Daemon
	health   *health.Checker
	devices  []string
	output   string

	// ready is set once newDaemon has finished; the control socket is
	// already serving before that.
	ready atomic.Bool
}

// newDaemon compiles cfg and opens the output and input devices, in that
// order, so that configuration errors never leave a keyboard grabbed.
func newDaemon(cfg *config.Config, loader *config.Loader, log *logging.Logger, opts daemonOptions) (*daemon, error) {
	d := &daemon{
		log:      log,
		loader:   loader,
		watch:    opts.watch,
		reloads:  make(chan *config.Config, 1),
		controls: make(chan control),
		metrics:  metrics.NewDaemon(),
		output:   cfg.Output.Backend + ":" + cfg.Output.Name,
	}

	tables, skipped, err := d.compile(cfg)
	if err != nil {
		return nil, err
	}
	d.metrics.SkippedEntries.Set(int64(len(skipped)))

	if opts.control != "" {
		server := ipc.NewServer(ipc.DefaultServerConfig(opts.control), d, log.WithComponent("control"))
		if err := server.Start(); err != nil {
			return nil, fmt.Errorf("control socket: %w", err)
		}
		d.closers = append(d.closers, server.Stop)
	}

	d.windows, err = window.New(cfg.Window.Provider, time.Duration(cfg.Window.CacheMs)*time.Millisecond, log.WithComponent("window"))
	if err != nil {
		return nil, err
	}

	if cfg.IME.Enabled {
		prober, err := ime.NewDBusProber(cfg.IME.Service)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, prober.Close)
		gate, err := ime.NewGate(prober, cfg.IME.Match, time.Duration(cfg.IME.CacheMs)*time.Millisecond, log.WithComponent("ime"))
		if err != nil {
			d.Close()
			return nil, err
		}
		d.gate = gate.Open
	}

	sink, err := output.Open(output.Options{Backend: cfg.Output.Backend, Name: cfg.Output.Name}, log.WithComponent("output"))
	if err != nil {
		d.Close()
		return nil, err
	}
	d.sink = sink

	reader, err := input.Open(input.Options{
		Paths:   opts.devices,
		Filter:  cfg.Input.DeviceFilter,
		Exclude: cfg.Output.Name,
		Grab:    cfg.Input.Grab,
	}, log.WithComponent("input"))
	if err != nil {
		d.Close()
		return nil, err
	}
	d.reader = reader
	for _, info := range reader.Devices() {
		d.devices = append(d.devices, info.String())
	}
	d.metrics.InputDevices.Set(int64(len(d.devices)))

	d.engine = d.newEngine(tables, nil)
	d.registerChecks()
	d.ready.Store(true)
	return d, nil
}

// compile builds the tables for cfg. Skipped entries have already been
// logged by Build.
func (d *daemon) compile(cfg *config.Config) (*transform.Tables, []config.Skipped, error) {
	tables, skipped, err := cfg.Build(d.log.WithComponent("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("compile config: %w", err)
	}
	if len(skipped) > 0 {
		d.log.Warn("config entries skipped", "count", len(skipped))
	}
	return tables, skipped, nil
}

func (d *daemon) newEngine(tables *transform.Tables, prev *transform.Engine) *transform.Engine {
	opts := []transform.Option{transform.WithLogger(d.log.WithComponent("transform"))}
	if d.gate != nil {
		opts = append(opts, transform.WithChordGate(d.gate))
	}
	if prev != nil {
		opts = append(opts, transform.WithState(prev.State()))
	}
	return transform.NewEngine(tables, d.sink, d.windows, opts...)
}

// Run processes events until ctx is cancelled or the input devices are
// lost. Engine calls all happen on this goroutine.
func (d *daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if d.watch {
		d.loader.OnChange(func(cfg *config.Config) {
			select {
			case d.reloads <- cfg:
			default:
				// A newer reload will follow; drop the pending one.
				select {
				case <-d.reloads:
				default:
				}
				d.reloads <- cfg
			}
		})
		if err := d.loader.Watch(); err != nil {
			d.log.Warn("config watch unavailable", "error", err)
		}
	}

	events := make(chan key.Event, 64)
	readErr := make(chan error, 1)
	go func() {
		defer logging.Recover(d.log, "input")
		readErr <- d.reader.Run(ctx, events)
	}()

	d.log.Info("keysnaild running")

	for {
		select {
		case <-ctx.Done():
			d.log.Info("shutting down")
			return <-readErr

		case err := <-readErr:
			if errors.Is(err, input.ErrDevicesLost) {
				return err
			}
			return nil

		case ev := <-events:
			d.metrics.EventsTotal.Inc()
			d.process(ev)

		case cfg := <-d.reloads:
			d.reload(cfg)

		case c := <-d.controls:
			c.reply <- d.handleControl(c.msg)

		case err := <-d.loader.Errors():
			d.log.Warn("config reload failed, keeping current config", "error", err)
		}
	}
}

func (d *daemon) process(ev key.Event) {
	start := time.Now()
	defer func() { d.metrics.ProcessDuration.ObserveDuration(time.Since(start)) }()
	defer logging.Recover(d.log, "process "+ev.Key.String())
	d.engine.Process(ev)
}

// reload swaps in a new engine built from cfg, carrying over held keys, the
// mark and chord mode. On error the current engine stays.
func (d *daemon) reload(cfg *config.Config) ([]config.Skipped, error) {
	tables, skipped, err := d.compile(cfg)
	if err != nil {
		d.metrics.ReloadFailuresTotal.Inc()
		d.log.Error("config reload rejected", "error", err)
		return nil, err
	}
	d.engine = d.newEngine(tables, d.engine)
	d.metrics.ReloadsTotal.Inc()
	d.metrics.SkippedEntries.Set(int64(len(skipped)))
	d.log.Info("config reloaded", "keymaps", len(tables.Keymaps), "chords", tables.Chords.Len())
	return skipped, nil
}

// Close releases held output keys, ungrabs the inputs and closes devices.
func (d *daemon) Close() error {
	var errs []error
	if d.reader != nil {
		d.reader.Close()
	}
	if d.sink != nil {
		errs = append(errs, d.sink.Close())
	}
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
