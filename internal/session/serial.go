package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialSpec describes a serial port session. BaudRate defaults to 9600;
// framing is fixed at 8N1.
type SerialSpec struct {
	Device   string
	BaudRate int
}

// Serial is the singleton serial port session.
type Serial struct {
	opts Options

	mu    sync.Mutex
	state State
	port  serial.Port
	pump  *pump

	device    string
	startedAt time.Time
}

// NewSerial creates an idle serial session.
func NewSerial(opts Options) *Serial {
	return &Serial{opts: opts.normalize(), state: StateIdle}
}

// Medium implements Session.
func (s *Serial) Medium() Medium { return MediumSerial }

// State returns the current lifecycle state.
func (s *Serial) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Device returns "path@baud" of the open port, empty when idle.
func (s *Serial) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Start opens the port. Valid from Idle or Closed; fails with
// ErrAlreadyActive while a port is open.
func (s *Serial) Start(spec SerialSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateActive {
		return fmt.Errorf("serial: %w", ErrAlreadyActive)
	}
	if spec.Device == "" {
		return fmt.Errorf("serial: device is required")
	}

	baud := spec.BaudRate
	if baud <= 0 {
		baud = 9600
	}

	port, err := serial.Open(spec.Device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", spec.Device, err)
	}

	s.port = port
	s.pump = startPump(port)
	s.device = spec.Device + "@" + strconv.Itoa(baud)
	s.state = StateActive
	s.startedAt = time.Now()
	return nil
}

// Send writes data to the port verbatim.
func (s *Serial) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return fmt.Errorf("serial: %w", ErrNotActive)
	}
	if _, err := s.port.Write(data); err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	return nil
}

// Read performs a bounded drain of received data.
func (s *Serial) Read(timeout time.Duration) (string, error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return "", fmt.Errorf("serial: %w", ErrNotActive)
	}
	pm := s.pump
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = s.opts.ReadTimeout
	}
	out := pm.drain(timeout, s.opts.QuietWindow, s.opts.BufferLimit)
	return string(out), nil
}

// Message is the request/response convenience: send, then drain replies.
func (s *Serial) Message(data []byte, timeout time.Duration) (string, error) {
	if err := s.Send(data); err != nil {
		return "", err
	}
	return s.Read(timeout)
}

// Stop closes the port. Idempotent.
func (s *Serial) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		s.state = StateClosed
		return nil
	}

	s.port.Close()
	s.pump.close()
	s.port = nil
	s.pump = nil
	s.state = StateClosed
	return nil
}
