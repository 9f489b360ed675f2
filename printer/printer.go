// Package printer manages the session with one USB ESC/POS thermal
// printer: device selection, open/claim/release lifecycle, and bulk
// transfer of encoded print jobs.
package printer

import "errors"

// Session and transport errors. Callers branch with errors.Is; message
// text is never part of the contract.
var (
	// ErrCapabilityUnavailable means the host exposes no usable USB
	// access. Fatal for the whole session.
	ErrCapabilityUnavailable = errors.New("printer: usb capability unavailable")

	// ErrNoDeviceSelected means the chooser declined to pick a device or
	// no allow-listed device was present. Retry connect.
	ErrNoDeviceSelected = errors.New("printer: no device selected")

	// ErrConnectionFailed means open, configure or claim failed. No
	// partial handle is retained. Retry connect.
	ErrConnectionFailed = errors.New("printer: connection failed")

	// ErrNotConnected means a data operation ran without an active
	// session.
	ErrNotConnected = errors.New("printer: not connected")

	// ErrTransferFailed means the transport rejected or truncated a send.
	// Not retried and not interpreted further here.
	ErrTransferFailed = errors.New("printer: transfer failed")
)

// DeviceInfo is the metadata snapshot captured at connect time. Reads of
// it never query the device again.
type DeviceInfo struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Connected    bool   `json:"connected"`
}

// Device is one opened, claimed printer handle. Exclusively owned by a
// single Session; closed exactly once.
type Device interface {
	// Info returns the metadata cached when the device was opened.
	Info() DeviceInfo

	// Write streams one complete job to the bulk OUT endpoint. No
	// chunking, no retries.
	Write(data []byte) (int, error)

	// Close releases the claimed interface and closes the device.
	Close() error
}

// Candidate describes one allow-listed device offered to the chooser.
type Candidate struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
}

// Chooser picks one candidate by index. It models the host's
// user-mediated device selection step; returning an error means the user
// (or policy) declined.
type Chooser func(candidates []Candidate) (int, error)

// FirstMatch is the headless chooser: it takes the first allow-listed
// device found.
func FirstMatch(candidates []Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrNoDeviceSelected
	}
	return 0, nil
}

// Transport is the permissioned USB capability the session drives. The
// production implementation is USBTransport; tests substitute a fake.
type Transport interface {
	// Supported reports whether the host exposes the required USB access.
	// Pure check, no side effects.
	Supported() bool

	// Select runs the chooser over devices matching the vendor allow-list
	// and returns an opened, configured, claimed handle. Open, configure
	// and claim either all succeed or the whole call fails with nothing
	// retained.
	Select(allowedVendors []uint16) (Device, error)
}
