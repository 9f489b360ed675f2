package printer

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/salonkit/thermal-print-server/receipt"
)

// Session owns at most one printer device. The connection state is the
// dev field itself: nil is Unopened, non-nil is Ready — there is no
// separate connected flag to drift out of sync.
//
// Callers are expected to serialize operations; the mutex is a FIFO
// guard so an unserialized caller corrupts nothing, not an internal
// request queue.
type Session struct {
	mu        sync.Mutex
	transport Transport
	allowed   []uint16
	dev       Device
	now       func() time.Time
	log       zerolog.Logger
}

// NewSession creates a session over the given transport, restricted to
// the vendor allow-list.
func NewSession(transport Transport, allowedVendors []uint16, log zerolog.Logger) *Session {
	return &Session{
		transport: transport,
		allowed:   allowedVendors,
		now:       time.Now,
		log:       log.With().Str("component", "printer-session").Logger(),
	}
}

// Supported reports whether the host exposes the required USB access.
func (s *Session) Supported() bool {
	return s.transport.Supported()
}

// Connect runs the device selection flow and stores the resulting handle.
// A stale handle from a previous Connect is released first, so a repeat
// call can never leak a claimed interface. On failure the session is left
// Unopened, never in a partially-open state.
func (s *Session) Connect() (DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.transport.Supported() {
		return DeviceInfo{}, ErrCapabilityUnavailable
	}

	if s.dev != nil {
		s.teardown()
	}

	dev, err := s.transport.Select(s.allowed)
	if err != nil {
		return DeviceInfo{}, err
	}

	s.dev = dev
	info := dev.Info()
	s.log.Info().
		Str("name", info.Name).
		Str("manufacturer", info.Manufacturer).
		Msg("printer connected")
	return info, nil
}

// Disconnect releases the device. Best effort: transport errors during
// teardown are logged, not returned, and the session always ends up
// Unopened.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return
	}
	s.teardown()
	s.log.Info().Msg("printer disconnected")
}

// teardown closes and clears the handle. Caller holds the mutex.
func (s *Session) teardown() {
	if err := s.dev.Close(); err != nil {
		s.log.Warn().Err(err).Msg("error releasing printer device")
	}
	s.dev = nil
}

// Connected reports whether a device handle is held. Safe at any time.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev != nil
}

// Info returns the connect-time metadata snapshot, or ok=false when no
// device is held.
func (s *Session) Info() (DeviceInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return DeviceInfo{}, false
	}
	return s.dev.Info(), true
}

// Send transmits one complete job buffer in a single logical transfer.
// Short writes and transport errors surface as ErrTransferFailed; nothing
// is chunked, reordered or retried.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(data)
}

func (s *Session) send(data []byte) error {
	if s.dev == nil {
		return ErrNotConnected
	}

	n, err := s.dev.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: short write %d of %d bytes", ErrTransferFailed, n, len(data))
	}
	s.log.Debug().Int("bytes", n).Msg("job sent to printer")
	return nil
}

// PrintReceipt renders the document and sends it as one job. Invalid
// documents fail before any transport I/O.
func (s *Session) PrintReceipt(doc *receipt.Document) error {
	buf, err := receipt.Render(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.send(buf); err != nil {
		return err
	}
	s.log.Info().Str("invoice", doc.InvoiceNumber).Msg("receipt printed")
	return nil
}

// TestPrint sends the fixed connectivity test page.
func (s *Session) TestPrint() error {
	buf, err := receipt.TestPage(s.now())
	if err != nil {
		return err
	}
	return s.Send(buf)
}

// OpenCashDrawer sends the bare drawer pulse.
func (s *Session) OpenCashDrawer() error {
	return s.Send(receipt.DrawerPulse())
}
