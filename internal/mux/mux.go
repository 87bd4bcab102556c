// Package mux wraps tmux session operations via subprocess. Unlike the
// singleton media in internal/session, multiplexer sessions are named and
// many can coexist; they also survive server restarts, so listings merge
// live tmux state with locally tracked metadata.
package mux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// validNameRe validates session names to prevent shell injection and the
// cryptic failures tmux produces for names containing dots or colons.
var validNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Common errors.
var (
	ErrUnavailable = errors.New("tmux not available")
	ErrNoServer    = errors.New("no tmux server running")
	ErrDuplicate   = errors.New("session already exists")
	ErrNotFound    = errors.New("session not found")
	ErrInvalidName = errors.New("invalid session name")
)

// runner executes a tmux command and returns trimmed stdout. Extracted so
// tests can substitute canned transcripts for a live server.
type runner func(args ...string) (string, error)

// SessionInfo describes one multiplexer session. Command and WorkDir come
// from locally tracked metadata and are empty for sessions created outside
// this process.
type SessionInfo struct {
	Name      string    `json:"name"`
	Windows   int       `json:"windows"`
	Attached  bool      `json:"attached"`
	CreatedAt time.Time `json:"created_at"`
	Command   string    `json:"command,omitempty"`
	WorkDir   string    `json:"work_dir,omitempty"`
}

type meta struct {
	command string
	workDir string
}

// Mux wraps a tmux server, optionally on a named socket for isolation.
type Mux struct {
	binary string
	socket string
	run    runner

	mu   sync.Mutex
	meta map[string]meta
}

// New creates a Mux using the given tmux binary ("tmux" when empty) and
// socket name (default server when empty).
func New(binary, socket string) *Mux {
	if binary == "" {
		binary = "tmux"
	}
	m := &Mux{
		binary: binary,
		socket: socket,
		meta:   make(map[string]meta),
	}
	m.run = m.execRun
	return m
}

// execRun shells out to tmux. The -u flag forces UTF-8 regardless of locale;
// -L must precede the subcommand.
func (m *Mux) execRun(args ...string) (string, error) {
	allArgs := []string{"-u"}
	if m.socket != "" {
		allArgs = append(allArgs, "-L", m.socket)
	}
	allArgs = append(allArgs, args...)

	cmd := exec.Command(m.binary, allArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", m.wrapError(err, stderr.String(), args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// wrapError maps tmux stderr onto the package sentinels.
func (m *Mux) wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") ||
		strings.Contains(stderr, "server exited unexpectedly") {
		return ErrNoServer
	}
	if strings.Contains(stderr, "duplicate session") {
		return ErrDuplicate
	}
	if strings.Contains(stderr, "session not found") ||
		strings.Contains(stderr, "can't find session") {
		return ErrNotFound
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ErrUnavailable
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

func validateName(name string) error {
	if name == "" || !validNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidName, name, validNameRe.String())
	}
	return nil
}

// Available reports whether the tmux binary can be found at all.
func (m *Mux) Available() bool {
	_, err := exec.LookPath(m.binary)
	return err == nil
}

// Start creates a new detached session. When command is non-empty it runs as
// the pane's initial process instead of a shell.
func (m *Mux) Start(name, workDir, command string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if has, err := m.Has(name); err == nil && has {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	args := []string{"new-session", "-d", "-s", name}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	if command != "" {
		args = append(args, command)
	}
	if _, err := m.run(args...); err != nil {
		return err
	}
	// tmux 3.3+ locks detached sessions at 80x24; let the window follow
	// whichever client attaches later.
	_, _ = m.run("set-option", "-wt", name, "window-size", "latest")

	m.mu.Lock()
	m.meta[name] = meta{command: command, workDir: workDir}
	m.mu.Unlock()
	return nil
}

func (m *Mux) clearMeta() {
	m.mu.Lock()
	m.meta = make(map[string]meta)
	m.mu.Unlock()
}

// Has reports whether a session with the given name exists.
func (m *Mux) Has(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	_, err := m.run("has-session", "-t", name)
	if err != nil {
		if errors.Is(err, ErrNoServer) || errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns all live sessions, in name order, merged with any tracked
// metadata. A missing server means no sessions, not an error.
func (m *Mux) List() ([]SessionInfo, error) {
	out, err := m.run("list-sessions", "-F",
		"#{session_name}\t#{session_created}\t#{session_attached}\t#{session_windows}")
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			// Server death killed every session; a later session reusing
			// a name must not inherit stale metadata.
			m.clearMeta()
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		m.clearMeta()
		return nil, nil
	}

	var sessions []SessionInfo
	live := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		info := SessionInfo{Name: fields[0]}
		live[info.Name] = true
		if created, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			info.CreatedAt = time.Unix(created, 0)
		}
		if attached, err := strconv.Atoi(fields[2]); err == nil {
			info.Attached = attached > 0
		}
		if windows, err := strconv.Atoi(fields[3]); err == nil {
			info.Windows = windows
		}

		m.mu.Lock()
		if md, ok := m.meta[info.Name]; ok {
			info.Command = md.command
			info.WorkDir = md.workDir
		}
		m.mu.Unlock()

		sessions = append(sessions, info)
	}

	// Sessions killed outside this process leave stale metadata behind.
	m.mu.Lock()
	for name := range m.meta {
		if !live[name] {
			delete(m.meta, name)
		}
	}
	m.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions, nil
}

// SendKeys sends literal keystrokes to a session, followed by Enter when
// enter is true.
func (m *Mux) SendKeys(name, keys string, enter bool) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, err := m.run("send-keys", "-t", name, "-l", keys); err != nil {
		return err
	}
	if enter {
		if _, err := m.run("send-keys", "-t", name, "Enter"); err != nil {
			return err
		}
	}
	return nil
}

// Capture returns pane content. lines <= 0 captures the visible pane only;
// a positive value reaches that far back into scrollback.
func (m *Mux) Capture(name string, lines int) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	args := []string{"capture-pane", "-p", "-t", name}
	if lines > 0 {
		args = append(args, "-S", fmt.Sprintf("-%d", lines))
	}
	return m.run(args...)
}

// AttachCommand returns the argv a caller runs in its own terminal to attach
// to the session. Attaching requires a real TTY, so it cannot happen inside
// this process.
func (m *Mux) AttachCommand(name string) ([]string, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	has, err := m.Has(name)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	argv := []string{m.binary, "-u"}
	if m.socket != "" {
		argv = append(argv, "-L", m.socket)
	}
	return append(argv, "attach-session", "-t", name), nil
}

// Kill destroys a session and drops its metadata. Killing an already-gone
// session is not an error.
func (m *Mux) Kill(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	_, err := m.run("kill-session", "-t", name)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNoServer) {
		return err
	}

	m.mu.Lock()
	delete(m.meta, name)
	m.mu.Unlock()
	return nil
}
