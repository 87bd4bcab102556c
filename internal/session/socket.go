package session

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ptybridge/ptybridge/internal/term"
)

// SocketSpec describes a network socket session. Protocol is "tcp" or "udp";
// UDP uses a connected socket so reads and writes address a single peer.
// Telnet enables IAC option refusal and stripping on the read path.
type SocketSpec struct {
	Host        string
	Port        int
	Protocol    string
	Telnet      bool
	DialTimeout time.Duration
}

// Socket is the singleton socket session.
type Socket struct {
	opts Options

	mu    sync.Mutex
	state State
	conn  net.Conn
	pump  *pump

	telnet    bool
	remote    string
	startedAt time.Time
}

// NewSocket creates an idle socket session.
func NewSocket(opts Options) *Socket {
	return &Socket{opts: opts.normalize(), state: StateIdle}
}

// Medium implements Session.
func (s *Socket) Medium() Medium { return MediumSocket }

// State returns the current lifecycle state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remote returns "proto://host:port" of the connected peer, empty when idle.
func (s *Socket) Remote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

// Start dials the peer. Valid from Idle or Closed; fails with
// ErrAlreadyActive while a connection is open.
func (s *Socket) Start(spec SocketSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateActive {
		return fmt.Errorf("socket: %w", ErrAlreadyActive)
	}
	if spec.Host == "" {
		return fmt.Errorf("socket: host is required")
	}
	if spec.Port <= 0 || spec.Port > 65535 {
		return fmt.Errorf("socket: invalid port %d", spec.Port)
	}

	proto := spec.Protocol
	if proto == "" {
		proto = "tcp"
	}
	if proto != "tcp" && proto != "udp" {
		return fmt.Errorf("socket: unsupported protocol %q", proto)
	}

	dialTimeout := spec.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	addr := net.JoinHostPort(spec.Host, strconv.Itoa(spec.Port))
	conn, err := net.DialTimeout(proto, addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("socket: dial %s %s: %w", proto, addr, err)
	}

	s.conn = conn
	s.pump = startPump(conn)
	s.telnet = spec.Telnet
	s.remote = proto + "://" + addr
	s.state = StateActive
	s.startedAt = time.Now()
	return nil
}

// Send writes data to the peer verbatim. Socket payloads are not
// line-oriented, so no newline is appended.
func (s *Socket) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return fmt.Errorf("socket: %w", ErrNotActive)
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("socket: write: %w", err)
	}
	return nil
}

// Read performs a bounded drain of received data. In telnet mode, option
// negotiations are refused on the wire and stripped from the result.
func (s *Socket) Read(timeout time.Duration) (string, error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return "", fmt.Errorf("socket: %w", ErrNotActive)
	}
	pm := s.pump
	conn := s.conn
	telnet := s.telnet
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = s.opts.ReadTimeout
	}
	out := pm.drain(timeout, s.opts.QuietWindow, s.opts.BufferLimit)
	if !telnet {
		return string(out), nil
	}

	clean, replies := term.NegotiateIAC(out)
	if len(replies) > 0 {
		// Best effort: the peer may have closed mid-negotiation.
		conn.Write(replies)
	}
	return string(clean), nil
}

// Message is the request/response convenience: send, then drain replies.
func (s *Socket) Message(data []byte, timeout time.Duration) (string, error) {
	if err := s.Send(data); err != nil {
		return "", err
	}
	return s.Read(timeout)
}

// Stop closes the connection. Idempotent.
func (s *Socket) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		s.state = StateClosed
		return nil
	}

	s.conn.Close()
	s.pump.close()
	s.conn = nil
	s.pump = nil
	s.state = StateClosed
	return nil
}
