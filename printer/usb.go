package printer

import (
	"fmt"
	"runtime"

	"github.com/google/gousb"
	"github.com/rs/zerolog"
)

// USBTransport implements Transport over libusb via gousb.
type USBTransport struct {
	ctx    *gousb.Context
	choose Chooser
	log    zerolog.Logger
}

// NewUSBTransport creates the production transport. choose may be nil, in
// which case the headless FirstMatch chooser is used.
func NewUSBTransport(choose Chooser, log zerolog.Logger) *USBTransport {
	if choose == nil {
		choose = FirstMatch
	}
	return &USBTransport{
		ctx:    gousb.NewContext(),
		choose: choose,
		log:    log.With().Str("component", "usb-transport").Logger(),
	}
}

// Supported reports whether a libusb context is available.
func (t *USBTransport) Supported() bool {
	return t != nil && t.ctx != nil
}

// Close releases the libusb context. The transport is unusable afterward.
func (t *USBTransport) Close() error {
	if t.ctx == nil {
		return nil
	}
	err := t.ctx.Close()
	t.ctx = nil
	return err
}

// Select enumerates devices whose vendor ID is on the allow-list, runs
// the chooser over them, and opens the chosen one: select a configuration
// if none is active, claim interface 0, resolve the bulk OUT endpoint.
// Any step failing tears down everything opened so far.
func (t *USBTransport) Select(allowedVendors []uint16) (Device, error) {
	if !t.Supported() {
		return nil, ErrCapabilityUnavailable
	}

	allowed := make(map[gousb.ID]bool, len(allowedVendors))
	for _, vid := range allowedVendors {
		allowed[gousb.ID(vid)] = true
	}

	devices, err := t.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return allowed[desc.Vendor]
	})
	if err != nil {
		// OpenDevices returns the devices it did open alongside the error.
		for _, dev := range devices {
			dev.Close()
		}
		return nil, fmt.Errorf("%w: enumerating devices: %v", ErrConnectionFailed, err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no allow-listed printer attached", ErrNoDeviceSelected)
	}

	candidates := make([]Candidate, len(devices))
	for i, dev := range devices {
		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()
		candidates[i] = Candidate{
			VendorID:     uint16(dev.Desc.Vendor),
			ProductID:    uint16(dev.Desc.Product),
			Manufacturer: manufacturer,
			Product:      product,
		}
		t.log.Debug().
			Str("vid", dev.Desc.Vendor.String()).
			Str("pid", dev.Desc.Product.String()).
			Str("product", product).
			Msg("printer candidate")
	}

	idx, err := t.choose(candidates)
	if err != nil || idx < 0 || idx >= len(devices) {
		for _, dev := range devices {
			dev.Close()
		}
		if err == nil {
			err = fmt.Errorf("chooser index %d out of range", idx)
		}
		return nil, fmt.Errorf("%w: %v", ErrNoDeviceSelected, err)
	}

	for i, dev := range devices {
		if i != idx {
			dev.Close()
		}
	}

	return t.open(devices[idx], candidates[idx])
}

// open configures and claims a chosen device. All-or-nothing: on any
// failure the device is closed and no handle escapes.
func (t *USBTransport) open(dev *gousb.Device, cand Candidate) (Device, error) {
	if runtime.GOOS == "linux" {
		dev.SetAutoDetach(true)
	}

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		// No active configuration; fall back to the first one.
		cfgNum = 1
	}

	cfg, err := dev.Config(cfgNum)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("%w: selecting configuration %d: %v", ErrConnectionFailed, cfgNum, err)
	}

	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		return nil, fmt.Errorf("%w: claiming interface 0: %v", ErrConnectionFailed, err)
	}

	var out *gousb.OutEndpoint
	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction == gousb.EndpointDirectionOut {
			out, err = iface.OutEndpoint(epDesc.Number)
			if err == nil {
				break
			}
		}
	}
	if out == nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		return nil, fmt.Errorf("%w: no bulk OUT endpoint on interface 0", ErrConnectionFailed)
	}

	name := cand.Product
	if name == "" {
		name = fmt.Sprintf("%04x:%04x", cand.VendorID, cand.ProductID)
	}

	t.log.Info().
		Str("name", name).
		Int("endpoint", out.Desc.Number).
		Msg("printer opened and claimed")

	return &usbDevice{
		dev:   dev,
		cfg:   cfg,
		iface: iface,
		out:   out,
		info: DeviceInfo{
			Name:         name,
			Manufacturer: cand.Manufacturer,
			Connected:    true,
		},
	}, nil
}

// usbDevice is an opened, claimed gousb handle.
type usbDevice struct {
	dev   *gousb.Device
	cfg   *gousb.Config
	iface *gousb.Interface
	out   *gousb.OutEndpoint
	info  DeviceInfo
}

func (d *usbDevice) Info() DeviceInfo {
	return d.info
}

func (d *usbDevice) Write(data []byte) (int, error) {
	return d.out.Write(data)
}

// Close releases the interface, configuration and device in that order.
func (d *usbDevice) Close() error {
	var errs []error

	if d.iface != nil {
		d.iface.Close()
		d.iface = nil
	}
	if d.cfg != nil {
		if err := d.cfg.Close(); err != nil {
			errs = append(errs, err)
		}
		d.cfg = nil
	}
	if d.dev != nil {
		if err := d.dev.Close(); err != nil {
			errs = append(errs, err)
		}
		d.dev = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
