package session

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ProcessSpec describes a bare process session: no terminal emulation, plain
// stdin/stdout pipes.
type ProcessSpec struct {
	Command    string
	Args       []string
	WorkingDir string
	Env        []string
}

// Process is the singleton bare-process session. Stderr is folded into the
// stdout stream so a single drain sees everything the child writes.
type Process struct {
	opts Options

	mu    sync.Mutex
	state State
	cmd   *exec.Cmd
	stdin io.WriteCloser
	pump  *pump

	command   string
	startedAt time.Time
}

// NewProcess creates an idle process session.
func NewProcess(opts Options) *Process {
	return &Process{opts: opts.normalize(), state: StateIdle}
}

// Medium implements Session.
func (p *Process) Medium() Medium { return MediumProcess }

// State returns the current lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Command returns the command line the session was started with.
func (p *Process) Command() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.command
}

// PID returns the child's process ID, or 0 when no child is running.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Start spawns the command with piped stdin/stdout. Valid from Idle or
// Closed; fails with ErrAlreadyActive while a child is live.
func (p *Process) Start(spec ProcessSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateActive {
		return fmt.Errorf("process: %w", ErrAlreadyActive)
	}
	if spec.Command == "" {
		return fmt.Errorf("process: command is required")
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDir
	cmd.Env = spec.Env
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("process: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("process: stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("process: start %q: %w", spec.Command, err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.pump = startPump(stdout)
	p.state = StateActive
	p.command = strings.TrimSpace(spec.Command + " " + strings.Join(spec.Args, " "))
	p.startedAt = time.Now()
	return nil
}

// Send writes a line to the child's stdin, appending a trailing newline when
// missing.
func (p *Process) Send(data string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateActive {
		return fmt.Errorf("process: %w", ErrNotActive)
	}
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	if _, err := io.WriteString(p.stdin, data); err != nil {
		return fmt.Errorf("process: write: %w", err)
	}
	return nil
}

// Read performs a bounded drain of the child's combined output.
func (p *Process) Read(timeout time.Duration) (string, error) {
	p.mu.Lock()
	if p.state != StateActive {
		p.mu.Unlock()
		return "", fmt.Errorf("process: %w", ErrNotActive)
	}
	pm := p.pump
	p.mu.Unlock()

	if timeout <= 0 {
		timeout = p.opts.ReadTimeout
	}
	out := pm.drain(timeout, p.opts.QuietWindow, p.opts.BufferLimit)
	return string(out), nil
}

// Stop closes stdin so a well-behaved child can exit on EOF, then escalates
// to signals. Idempotent.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateActive {
		p.state = StateClosed
		return nil
	}

	p.stdin.Close()
	terminateCmd(p.cmd, p.opts.StopGrace)
	p.pump.close()

	p.cmd = nil
	p.stdin = nil
	p.pump = nil
	p.state = StateClosed
	return nil
}

// Alive reports whether the child process is still running.
func (p *Process) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateActive && processAlive(p.cmd)
}
