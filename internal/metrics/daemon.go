package metrics

import "time"

// Daemon is the metric set keysnaild records.
type Daemon struct {
	Registry *Registry

	EventsTotal          *Counter
	ReloadsTotal         *Counter
	ReloadFailuresTotal  *Counter
	ControlRequestsTotal *Counter
	PanicsTotal          *Counter

	OutputErrors   *Gauge
	InputDevices   *Gauge
	Simultaneous   *Gauge
	SkippedEntries *Gauge
	UptimeSeconds  *Gauge

	ProcessDuration *Histogram

	startedAt time.Time
}

// NewDaemon registers the daemon metrics in a fresh "keysnail" registry.
func NewDaemon() *Daemon {
	r := NewRegistry("keysnail")
	return &Daemon{
		Registry: r,

		EventsTotal:          r.Counter("events_total", "Key events read from input devices", nil),
		ReloadsTotal:         r.Counter("config_reloads_total", "Successful configuration reloads", nil),
		ReloadFailuresTotal:  r.Counter("config_reload_failures_total", "Rejected configuration reloads", nil),
		ControlRequestsTotal: r.Counter("control_requests_total", "Requests served on the control socket", nil),
		PanicsTotal:          r.Counter("panics_total", "Panics recovered while processing events", nil),

		OutputErrors:   r.Gauge("output_errors", "Failed writes to the virtual keyboard", nil),
		InputDevices:   r.Gauge("input_devices", "Input devices being read", nil),
		Simultaneous:   r.Gauge("simultaneous_mode", "Whether simultaneous chord mode is on", nil),
		SkippedEntries: r.Gauge("config_skipped_entries", "Entries skipped when compiling the running config", nil),
		UptimeSeconds:  r.Gauge("uptime_seconds", "Seconds since the daemon started", nil),

		ProcessDuration: r.Histogram("process_duration_seconds", "Time to run one event through the engine", nil, LatencyBuckets),

		startedAt: time.Now(),
	}
}

// StartedAt returns when the metric set was created.
func (d *Daemon) StartedAt() time.Time {
	return d.startedAt
}

// Uptime refreshes and returns the uptime gauge.
func (d *Daemon) Uptime() time.Duration {
	up := time.Since(d.startedAt)
	d.UptimeSeconds.Set(int64(up.Seconds()))
	return up
}
