package session

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/ptybridge/ptybridge/internal/term"
)

// PTYSpec describes how to start a pseudo-terminal session.
type PTYSpec struct {
	Command    string
	Args       []string
	WorkingDir string
	Env        []string
	Cols       int
	Rows       int
}

// PTY is the singleton pseudo-terminal session. Output reads strip terminal
// control sequences; colors are preserved.
type PTY struct {
	opts Options

	mu    sync.Mutex
	state State
	cmd   *exec.Cmd
	ptmx  *os.File
	pump  *pump

	command   string
	startedAt time.Time
}

// NewPTY creates an idle PTY session.
func NewPTY(opts Options) *PTY {
	return &PTY{opts: opts.normalize(), state: StateIdle}
}

// Medium implements Session.
func (p *PTY) Medium() Medium { return MediumPTY }

// State returns the current lifecycle state.
func (p *PTY) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Command returns the command line the session was started with.
func (p *PTY) Command() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.command
}

// Start allocates a PTY and spawns the command attached to it. Valid from
// Idle or Closed; fails with ErrAlreadyActive while a session is live.
func (p *PTY) Start(spec PTYSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateActive {
		return fmt.Errorf("pty: %w", ErrAlreadyActive)
	}
	if spec.Command == "" {
		return fmt.Errorf("pty: command is required")
	}

	cols, rows := spec.Cols, spec.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDir
	cmd.Env = spec.Env
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return fmt.Errorf("pty: start %q: %w", spec.Command, err)
	}

	p.cmd = cmd
	p.ptmx = ptmx
	p.pump = startPump(ptmx)
	p.state = StateActive
	p.command = strings.TrimSpace(spec.Command + " " + strings.Join(spec.Args, " "))
	p.startedAt = time.Now()
	return nil
}

// Send writes input to the PTY, appending a trailing newline when missing so
// a line-oriented shell sees complete input.
func (p *PTY) Send(data string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateActive {
		return fmt.Errorf("pty: %w", ErrNotActive)
	}
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	if _, err := p.ptmx.Write([]byte(data)); err != nil {
		return fmt.Errorf("pty: write: %w", err)
	}
	return nil
}

// SendRaw writes bytes without newline handling. Used for control
// characters (Ctrl-C, clear).
func (p *PTY) SendRaw(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateActive {
		return fmt.Errorf("pty: %w", ErrNotActive)
	}
	if _, err := p.ptmx.Write(data); err != nil {
		return fmt.Errorf("pty: write: %w", err)
	}
	return nil
}

// Read performs a bounded drain of PTY output and strips control sequences.
// A timeout of zero uses the configured default. An empty result after a
// full timeout is success, not an error.
func (p *PTY) Read(timeout time.Duration) (string, error) {
	p.mu.Lock()
	if p.state != StateActive {
		p.mu.Unlock()
		return "", fmt.Errorf("pty: %w", ErrNotActive)
	}
	pm := p.pump
	p.mu.Unlock()

	if timeout <= 0 {
		timeout = p.opts.ReadTimeout
	}
	out := pm.drain(timeout, p.opts.QuietWindow, p.opts.BufferLimit)
	return term.StripEscapes(string(out)), nil
}

// Resize changes the terminal dimensions.
func (p *PTY) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateActive {
		return fmt.Errorf("pty: %w", ErrNotActive)
	}
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("pty: invalid dimensions %dx%d", cols, rows)
	}
	if err := pty.Setsize(p.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return fmt.Errorf("pty: resize: %w", err)
	}
	return nil
}

// Stop terminates the child and releases the PTY. Idempotent: stopping an
// Idle or already-Closed session is a no-op.
func (p *PTY) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateActive {
		p.state = StateClosed
		return nil
	}

	terminateCmd(p.cmd, p.opts.StopGrace)
	p.ptmx.Close()
	p.pump.close()

	p.cmd = nil
	p.ptmx = nil
	p.pump = nil
	p.state = StateClosed
	return nil
}

// Alive reports whether the child process is still running.
func (p *PTY) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateActive && processAlive(p.cmd)
}
