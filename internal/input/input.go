// Package input reads key events from evdev keyboards.
//
// Each device gets its own reader goroutine. All readers feed one channel
// so that the engine sees a single ordered stream.
package input

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"keysnail/internal/key"
	"keysnail/internal/logging"
)

// Errors
var (
	ErrNoDevices   = errors.New("no input devices")
	ErrDevicesLost = errors.New("all input devices were lost")
)

// DeviceInfo describes an input device.
type DeviceInfo struct {
	Path string
	Name string
	// Keyboard is true when the device reports KEY_A and KEY_ENTER.
	Keyboard bool
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s (%s)", d.Path, d.Name)
}

// source is the part of an evdev device the reader needs.
type source interface {
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

type device struct {
	info DeviceInfo
	src  source
}

// Reader reads from a set of opened devices.
type Reader struct {
	devices []device
	log     *logging.Logger

	closeOnce sync.Once
}

func newReader(devices []device, log *logging.Logger) *Reader {
	if log == nil {
		log = logging.Default().WithComponent("input")
	}
	return &Reader{devices: devices, log: log}
}

// Devices returns the devices the reader was opened on.
func (r *Reader) Devices() []DeviceInfo {
	infos := make([]DeviceInfo, len(r.devices))
	for i, d := range r.devices {
		infos[i] = d.info
	}
	return infos
}

// Run forwards key events to events until ctx is cancelled or every device
// has failed. Devices are closed (and ungrabbed) before Run returns.
func (r *Reader) Run(ctx context.Context, events chan<- key.Event) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, d := range r.devices {
		wg.Add(1)
		go func(d device) {
			defer wg.Done()
			defer logging.Recover(r.log, "input reader "+d.info.Path)
			r.read(ctx, d, events)
		}(d)
	}

	lost := make(chan struct{})
	go func() {
		wg.Wait()
		close(lost)
	}()

	select {
	case <-ctx.Done():
		r.Close()
		<-lost
		return nil
	case <-lost:
		r.Close()
		if ctx.Err() != nil {
			return nil
		}
		return ErrDevicesLost
	}
}

func (r *Reader) read(ctx context.Context, d device, events chan<- key.Event) {
	for {
		ev, err := d.src.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				r.log.Warn("input device lost", "device", d.info.Path, "name", d.info.Name, "error", err)
			}
			return
		}
		e, ok := Decode(ev, d.info.Name)
		if !ok {
			continue
		}
		select {
		case events <- e:
		case <-ctx.Done():
			return
		}
	}
}

// Close closes every device. It is safe to call more than once.
func (r *Reader) Close() {
	r.closeOnce.Do(func() {
		for _, d := range r.devices {
			if err := d.src.Close(); err != nil {
				r.log.Debug("close input device", "device", d.info.Path, "error", err)
			}
		}
	})
}

// Decode converts an EV_KEY event. Other event types, and key values other
// than press, release and repeat, are rejected.
func Decode(ev *evdev.InputEvent, deviceName string) (key.Event, bool) {
	if ev == nil || ev.Type != evdev.EV_KEY {
		return key.Event{}, false
	}
	a, ok := key.ActionFromValue(ev.Value)
	if !ok {
		return key.Event{}, false
	}
	return key.Event{
		Key:    key.Key(ev.Code),
		Action: a,
		Device: deviceName,
		Time:   time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*int64(time.Microsecond)),
	}, true
}
