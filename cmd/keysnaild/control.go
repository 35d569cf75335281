package main

import (
	"bytes"
	"context"
	"errors"
	"time"

	"keysnail/internal/health"
	"keysnail/internal/ipc"
)

// controlWait bounds how long a control request waits for the event loop.
const controlWait = 2 * time.Second

// control is a request handed from a socket goroutine to the event loop,
// which owns the engine.
type control struct {
	msg   *ipc.Message
	reply chan *ipc.Message
}

// HandleMessage implements ipc.Handler.
func (d *daemon) HandleMessage(ctx context.Context, msg *ipc.Message) (*ipc.Message, error) {
	d.metrics.ControlRequestsTotal.Inc()
	if !d.ready.Load() {
		return ipc.NewErrorMessage(msg.Header.RequestID, ipc.ErrUnavailable, "daemon starting"), nil
	}

	// Health checks probe the event loop themselves, so they run here.
	if msg.Header.Type == ipc.MsgHealthRequest {
		return ipc.NewResponse(ipc.MsgHealthResponse, msg.Header.RequestID, d.healthReport(ctx))
	}

	c := control{msg: msg, reply: make(chan *ipc.Message, 1)}

	timer := time.NewTimer(controlWait)
	defer timer.Stop()

	select {
	case d.controls <- c:
	case <-timer.C:
		return ipc.NewErrorMessage(msg.Header.RequestID, ipc.ErrUnavailable, "event loop not running"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-c.reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handleControl runs on the event loop.
func (d *daemon) handleControl(msg *ipc.Message) *ipc.Message {
	id := msg.Header.RequestID

	var (
		resp *ipc.Message
		err  error
	)
	switch msg.Header.Type {
	case ipc.MsgPing:
		return ipc.NewMessage(ipc.MsgPong, id, nil)

	case ipc.MsgStatusRequest:
		resp, err = ipc.NewResponse(ipc.MsgStatusResponse, id, d.status())

	case ipc.MsgMetricsRequest:
		resp, err = d.metricsResponse(id)

	case ipc.MsgReloadConfig:
		resp, err = ipc.NewResponse(ipc.MsgReloadConfigResp, id, d.reloadFromDisk())

	case ipc.MsgSetSimultaneous:
		var req ipc.SetSimultaneousRequest
		if err := ipc.Decode(msg.Payload, &req); err != nil {
			return ipc.NewErrorMessage(id, ipc.ErrInvalidRequest, "invalid set-simultaneous request")
		}
		st := d.engine.State()
		st.SetSimultaneous(req.Enabled)
		d.log.Info("simultaneous mode set over control socket", "enabled", req.Enabled)
		resp, err = ipc.NewResponse(ipc.MsgSetSimultaneousResp, id, &ipc.SetSimultaneousResponse{Enabled: st.SimultaneousEnabled()})

	default:
		return ipc.NewErrorMessage(id, ipc.ErrInvalidRequest, "unsupported request "+msg.Header.Type.String())
	}

	if err != nil {
		return ipc.NewErrorMessage(id, ipc.ErrInternalError, err.Error())
	}
	return resp
}

func (d *daemon) status() *ipc.StatusResponse {
	st := d.engine.State()
	tables := d.engine.Tables()

	keymaps := make([]string, 0, len(tables.Keymaps))
	for _, km := range tables.Keymaps {
		keymaps = append(keymaps, km.Name)
	}

	return &ipc.StatusResponse{
		Version:      Version,
		StartedAt:    d.metrics.StartedAt(),
		Uptime:       d.metrics.Uptime().Round(time.Second),
		ConfigPath:   d.loader.Path(),
		Devices:      d.devices,
		Output:       d.output,
		WindowClass:  d.windows.ActiveWindowClass(),
		Keymaps:      keymaps,
		Chords:       tables.Chords.Len(),
		Mode:         st.Mode().String(),
		Mark:         st.Mark(),
		Simultaneous: st.SimultaneousEnabled(),
		Events:       d.metrics.EventsTotal.Value(),
		OutputErrors: d.sink.Errors(),
		Reloads:      int(d.metrics.ReloadsTotal.Value()),
		Skipped:      int(d.metrics.SkippedEntries.Value()),
	}
}

// reloadFromDisk re-reads the config file on request, independent of
// -watch.
func (d *daemon) reloadFromDisk() *ipc.ReloadResponse {
	cfg, err := d.loader.Load()
	if err != nil {
		return &ipc.ReloadResponse{Error: err.Error()}
	}
	skipped, err := d.reload(cfg)
	if err != nil {
		return &ipc.ReloadResponse{Error: err.Error()}
	}
	resp := &ipc.ReloadResponse{Success: true}
	for _, s := range skipped {
		resp.Skipped = append(resp.Skipped, s.String())
	}
	return resp
}

// metricsResponse refreshes the sampled gauges and renders the registry.
func (d *daemon) metricsResponse(id uint32) (*ipc.Message, error) {
	d.metrics.Uptime()
	d.metrics.OutputErrors.Set(int64(d.sink.Errors()))
	d.metrics.Simultaneous.SetBool(d.engine.State().SimultaneousEnabled())

	var buf bytes.Buffer
	if err := d.metrics.Registry.WritePrometheus(&buf); err != nil {
		return nil, err
	}
	return ipc.NewResponse(ipc.MsgMetricsResponse, id, &ipc.MetricsResponse{Text: buf.String()})
}

// registerChecks sets up the components reported by the health request.
func (d *daemon) registerChecks() {
	d.health = health.NewChecker()

	d.health.RegisterFunc("event-loop", true, health.CustomCheck(d.pingLoop))
	d.health.RegisterFunc("input", true, health.CustomCheck(func(ctx context.Context) error {
		if len(d.devices) == 0 {
			return errors.New("no input devices")
		}
		return nil
	}))
	d.health.RegisterFunc("output", true, health.CounterCheck("output write errors", d.sink.Errors))
	d.health.RegisterFunc("config", false, health.FileExistsCheck(d.loader.Path()))
}

// pingLoop round-trips a ping through the event loop.
func (d *daemon) pingLoop(ctx context.Context) error {
	c := control{msg: ipc.NewMessage(ipc.MsgPing, 0, nil), reply: make(chan *ipc.Message, 1)}
	select {
	case d.controls <- c:
	case <-ctx.Done():
		return errors.New("event loop not responding")
	}
	select {
	case <-c.reply:
		return nil
	case <-ctx.Done():
		return errors.New("event loop not responding")
	}
}

func (d *daemon) healthReport(ctx context.Context) *ipc.HealthResponse {
	rep := d.health.Run(ctx)
	resp := &ipc.HealthResponse{Status: string(rep.Status)}
	for _, c := range rep.Components {
		resp.Components = append(resp.Components, ipc.ComponentHealth{
			Name:     c.Name,
			Status:   string(c.Status),
			Message:  c.Message,
			Critical: c.Critical,
			Duration: c.Duration,
		})
	}
	return resp
}
