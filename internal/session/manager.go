package session

import "sync"

// Manager owns one optional session per medium. Sessions are created lazily
// on first access and reused across stop/start cycles.
type Manager struct {
	opts Options

	mu      sync.Mutex
	pty     *PTY
	process *Process
	socket  *Socket
	serial  *Serial
}

// NewManager creates a manager with all media idle.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts.normalize()}
}

// PTY returns the pseudo-terminal slot.
func (m *Manager) PTY() *PTY {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pty == nil {
		m.pty = NewPTY(m.opts)
	}
	return m.pty
}

// Process returns the bare-process slot.
func (m *Manager) Process() *Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.process == nil {
		m.process = NewProcess(m.opts)
	}
	return m.process
}

// Socket returns the network socket slot.
func (m *Manager) Socket() *Socket {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.socket == nil {
		m.socket = NewSocket(m.opts)
	}
	return m.socket
}

// Serial returns the serial port slot.
func (m *Manager) Serial() *Serial {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.serial == nil {
		m.serial = NewSerial(m.opts)
	}
	return m.serial
}

// MediumStatus is a point-in-time view of one medium's slot.
type MediumStatus struct {
	Medium Medium `json:"medium"`
	State  State  `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// Status snapshots all four media. Slots never touched report Idle.
func (m *Manager) Status() []MediumStatus {
	m.mu.Lock()
	pty, proc, sock, ser := m.pty, m.process, m.socket, m.serial
	m.mu.Unlock()

	out := make([]MediumStatus, 0, 4)

	st := MediumStatus{Medium: MediumPTY, State: StateIdle}
	if pty != nil {
		st.State = pty.State()
		st.Detail = pty.Command()
	}
	out = append(out, st)

	st = MediumStatus{Medium: MediumProcess, State: StateIdle}
	if proc != nil {
		st.State = proc.State()
		st.Detail = proc.Command()
	}
	out = append(out, st)

	st = MediumStatus{Medium: MediumSocket, State: StateIdle}
	if sock != nil {
		st.State = sock.State()
		st.Detail = sock.Remote()
	}
	out = append(out, st)

	st = MediumStatus{Medium: MediumSerial, State: StateIdle}
	if ser != nil {
		st.State = ser.State()
		st.Detail = ser.Device()
	}
	return append(out, st)
}

// ActiveCount reports how many media currently hold a live session.
func (m *Manager) ActiveCount() int {
	n := 0
	for _, st := range m.Status() {
		if st.State == StateActive {
			n++
		}
	}
	return n
}

// StopAll stops every live session. Used on shutdown; individual stop
// errors are not surfaced because each Stop is idempotent and best effort.
func (m *Manager) StopAll() {
	m.mu.Lock()
	pty, proc, sock, ser := m.pty, m.process, m.socket, m.serial
	m.mu.Unlock()

	if pty != nil {
		pty.Stop()
	}
	if proc != nil {
		proc.Stop()
	}
	if sock != nil {
		sock.Stop()
	}
	if ser != nil {
		ser.Stop()
	}
}
