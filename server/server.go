// Package server exposes the print session to POS frontends over TCP.
// Clients send newline-delimited JSON jobs and receive one JSON ack per
// job on the same connection.
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salonkit/thermal-print-server/printer"
	"github.com/salonkit/thermal-print-server/receipt"
)

// Job types accepted on the wire.
const (
	JobReceipt    = "receipt"
	JobTestPrint  = "test_print"
	JobDrawerKick = "drawer_kick"
)

// Job is one print request from a client.
type Job struct {
	Type     string            `json:"type"`
	Document *receipt.Document `json:"document,omitempty"`
}

// Ack is the per-job response.
type Ack struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"` // "ok" or "error"
	Error  string `json:"error,omitempty"`
}

// PrintService is the session surface the server drives. Satisfied by
// *printer.Session; tests substitute a mock.
type PrintService interface {
	Connected() bool
	Connect() (printer.DeviceInfo, error)
	PrintReceipt(doc *receipt.Document) error
	TestPrint() error
	OpenCashDrawer() error
}

// Server accepts TCP connections and dispatches print jobs to the
// session. Jobs within one connection run in order; the session's own
// guard serializes jobs across connections.
type Server struct {
	service  PrintService
	listener net.Listener
	address  string
	mu       sync.Mutex
	running  bool
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// New creates a new server instance.
func New(service PrintService, address string, log zerolog.Logger) *Server {
	return &Server{
		service: service,
		address: address,
		log:     log.With().Str("component", "print-server").Logger(),
	}
}

// Start starts the TCP server and blocks until Stop is called.
func (s *Server) Start() error {
	if err := s.listen(); err != nil {
		return err
	}
	s.acceptConnections()
	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking).
func (s *Server) StartAsync() error {
	if err := s.listen(); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections()
	}()
	return nil
}

// listen binds the listener and connects the printer session if needed.
func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if !s.service.Connected() {
		if _, err := s.service.Connect(); err != nil {
			listener.Close()
			return fmt.Errorf("failed to connect printer: %w", err)
		}
	}

	s.listener = listener
	s.running = true
	s.log.Info().Str("address", s.address).Msg("server listening")
	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()

			if !running {
				return
			}
			s.log.Error().Err(err).Msg("accept failed")
			continue
		}

		s.log.Debug().Str("client", conn.RemoteAddr().String()).Msg("client connected")
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection reads one JSON job per line and writes one ack per
// job. A malformed or failed job keeps the connection open; the client
// decides when to hang up.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	client := conn.RemoteAddr().String()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		ack := s.dispatch(line)
		if ack.Status == "ok" {
			s.log.Info().Str("client", client).Str("job_id", ack.JobID).Msg("job printed")
		} else {
			s.log.Warn().Str("client", client).Str("job_id", ack.JobID).Str("error", ack.Error).Msg("job failed")
		}

		if err := enc.Encode(ack); err != nil {
			s.log.Error().Str("client", client).Err(err).Msg("writing ack failed")
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		s.log.Debug().Str("client", client).Err(err).Msg("client read ended")
	}
}

// dispatch decodes and runs one job, always returning an ack.
func (s *Server) dispatch(line []byte) Ack {
	ack := Ack{JobID: uuid.NewString(), Status: "ok"}

	var job Job
	if err := json.Unmarshal(line, &job); err != nil {
		ack.Status = "error"
		ack.Error = fmt.Sprintf("malformed job: %v", err)
		return ack
	}

	var err error
	switch job.Type {
	case JobReceipt:
		if job.Document == nil {
			err = errors.New("receipt job missing document")
		} else {
			err = s.service.PrintReceipt(job.Document)
		}
	case JobTestPrint:
		err = s.service.TestPrint()
	case JobDrawerKick:
		err = s.service.OpenCashDrawer()
	default:
		err = fmt.Errorf("unknown job type %q", job.Type)
	}

	if err != nil {
		ack.Status = "error"
		ack.Error = err.Error()
	}
	return ack
}

// Stop stops the TCP server and waits for active connections to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	s.wg.Wait()
	s.log.Info().Msg("server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.address
}
