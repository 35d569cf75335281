package input

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	evdev "github.com/holoplot/go-evdev"

	"keysnail/internal/logging"
)

// Options selects and configures the devices to read.
type Options struct {
	// Paths lists devices to open. When empty, keyboards are discovered.
	Paths []string
	// Filter, when set, is matched against discovered device names.
	Filter string
	// Exclude is a device name never opened, normally the output device.
	Exclude string
	// Grab takes exclusive access to each device.
	Grab bool
}

// Discover lists the input devices that can be opened.
func Discover() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	var infos []DeviceInfo
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		infos = append(infos, describe(dev, p.Path))
		dev.Close()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

func describe(dev *evdev.InputDevice, path string) DeviceInfo {
	name, _ := dev.Name()
	codes := dev.CapableEvents(evdev.EV_KEY)
	return DeviceInfo{
		Path:     path,
		Name:     name,
		Keyboard: slices.Contains(codes, evdev.KEY_A) && slices.Contains(codes, evdev.KEY_ENTER),
	}
}

// Select picks the devices to open from the discovered ones.
func Select(infos []DeviceInfo, opts Options) ([]DeviceInfo, error) {
	var filter *regexp.Regexp
	if opts.Filter != "" {
		re, err := regexp.Compile(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("device filter: %w", err)
		}
		filter = re
	}

	var out []DeviceInfo
	for _, info := range infos {
		if !info.Keyboard || info.Name == opts.Exclude {
			continue
		}
		if filter != nil && !filter.MatchString(info.Name) {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// grabbed ungrabs a device before closing it.
type grabbed struct {
	*evdev.InputDevice
}

func (g grabbed) Close() error {
	g.Ungrab()
	return g.InputDevice.Close()
}

// Open opens the devices chosen by opts.
func Open(opts Options, log *logging.Logger) (*Reader, error) {
	if log == nil {
		log = logging.Default().WithComponent("input")
	}

	var paths []string
	if len(opts.Paths) > 0 {
		paths = opts.Paths
	} else {
		infos, err := Discover()
		if err != nil {
			return nil, err
		}
		selected, err := Select(infos, opts)
		if err != nil {
			return nil, err
		}
		for _, info := range selected {
			paths = append(paths, info.Path)
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoDevices
	}

	var devices []device
	closeAll := func() {
		for _, d := range devices {
			d.src.Close()
		}
	}

	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		info := describe(dev, path)

		var src source = dev
		if opts.Grab {
			if err := dev.Grab(); err != nil {
				dev.Close()
				closeAll()
				return nil, fmt.Errorf("grab %s: %w", path, err)
			}
			src = grabbed{dev}
		}
		log.Info("input device opened", "device", path, "name", info.Name, "grab", opts.Grab)
		devices = append(devices, device{info: info, src: src})
	}

	return newReader(devices, log), nil
}
