package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterAndGauge(t *testing.T) {
	r := NewRegistry("test")

	c := r.Counter("events_total", "Events", nil)
	c.Inc()
	c.Add(4)
	assert.Equal(t, uint64(5), c.Value())
	assert.Equal(t, "test_events_total", c.Name())
	assert.Same(t, c, r.Counter("events_total", "ignored", nil))

	g := r.Gauge("devices", "Devices", nil)
	g.Set(3)
	g.Add(-1)
	assert.Equal(t, int64(2), g.Value())
	g.SetBool(true)
	assert.Equal(t, int64(1), g.Value())
	g.SetBool(false)
	assert.Zero(t, g.Value())
}

func TestCounterConcurrent(t *testing.T) {
	c := NewRegistry("").Counter("n", "", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(8000), c.Value())
}

func TestHistogramBuckets(t *testing.T) {
	h := NewRegistry("").Histogram("latency", "", nil, []float64{1, 0.1, 0.01})

	h.Observe(0.005)
	h.Observe(0.05)
	h.Observe(0.1) // upper bounds are inclusive
	h.Observe(5)

	assert.Equal(t, uint64(4), h.Count())
	assert.InDelta(t, 5.155/4, h.Mean(), 1e-9)
	assert.Equal(t, []uint64{1, 3, 3, 4}, h.cumulative())
}

func TestHistogramObserveDuration(t *testing.T) {
	h := NewRegistry("").Histogram("latency", "", nil, nil)
	h.ObserveDuration(50 * time.Microsecond)
	assert.InDelta(t, 0.00005, h.Mean(), 1e-12)
	assert.Len(t, h.buckets, len(LatencyBuckets))
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("ks")
	r.Counter("b_total", "B things", nil).Add(2)
	r.Counter("a_total", "A things", Labels{"side": "left", "dev": "kbd"}).Inc()
	r.Gauge("mode", "Mode", nil).Set(1)
	r.Histogram("lat", "Latency", nil, []float64{0.5, 1}).Observe(0.25)

	var b strings.Builder
	require.NoError(t, r.WritePrometheus(&b))

	assert.Equal(t, `# HELP ks_a_total A things
# TYPE ks_a_total counter
ks_a_total{dev="kbd",side="left"} 1
# HELP ks_b_total B things
# TYPE ks_b_total counter
ks_b_total 2
# HELP ks_mode Mode
# TYPE ks_mode gauge
ks_mode 1
# HELP ks_lat Latency
# TYPE ks_lat histogram
ks_lat_bucket{le="0.5"} 1
ks_lat_bucket{le="1"} 1
ks_lat_bucket{le="+Inf"} 1
ks_lat_sum 0.25
ks_lat_count 1
`, b.String())
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry("ks")
	r.Counter("events_total", "", nil).Add(3)
	r.Histogram("lat", "", nil, nil).Observe(0.5)

	snap := r.Snapshot()
	assert.Equal(t, 3.0, snap["ks_events_total"])
	assert.Equal(t, 1.0, snap["ks_lat_count"])
	assert.Equal(t, 0.5, snap["ks_lat_mean"])
}

func TestNewDaemon(t *testing.T) {
	d := NewDaemon()
	d.EventsTotal.Inc()
	d.ProcessDuration.ObserveDuration(time.Millisecond)

	assert.Equal(t, "keysnail_events_total", d.EventsTotal.Name())
	assert.GreaterOrEqual(t, d.Uptime(), time.Duration(0))
	assert.False(t, d.StartedAt().IsZero())

	var b strings.Builder
	require.NoError(t, d.Registry.WritePrometheus(&b))
	assert.Contains(t, b.String(), "keysnail_events_total 1\n")
	assert.Contains(t, b.String(), "keysnail_process_duration_seconds_count 1\n")
}
