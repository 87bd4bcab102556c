// Package session implements the singleton session state machines (PTY,
// process, socket, serial) and the manager that enforces the one-active-
// session-per-medium invariant.
package session

import (
	"errors"
	"time"
)

// Medium identifies a singleton session type.
type Medium string

const (
	MediumPTY     Medium = "pty"
	MediumProcess Medium = "process"
	MediumSocket  Medium = "socket"
	MediumSerial  Medium = "serial"
)

// State is the session lifecycle state. A session transitions
// Idle -> Active -> Closed; Closed sessions hold no OS resource and may be
// restarted, which constructs a fresh handle.
type State int

const (
	StateIdle State = iota
	StateActive
	StateClosed
)

// MarshalJSON renders the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sentinel errors for session lifecycle violations.
var (
	// ErrAlreadyActive is returned when starting a medium that already has
	// a live session. The caller must stop the old session explicitly; a
	// start never silently discards a live session.
	ErrAlreadyActive = errors.New("session already active")

	// ErrNotActive is returned for send/read/resize against a session that
	// has no open handle.
	ErrNotActive = errors.New("no active session")
)

// Options holds the bounded-read discipline shared by every medium.
type Options struct {
	// ReadTimeout bounds how long a read waits for the first byte.
	ReadTimeout time.Duration
	// QuietWindow bounds the gap between chunks once data has started
	// arriving; a gap longer than this ends the drain.
	QuietWindow time.Duration
	// BufferLimit caps the bytes collected by a single drain.
	BufferLimit int
	// StopGrace is how long Stop waits for a child to exit after the
	// termination signal before escalating to a kill.
	StopGrace time.Duration
}

// DefaultOptions returns the documented drain defaults.
func DefaultOptions() Options {
	return Options{
		ReadTimeout: 500 * time.Millisecond,
		QuietWindow: 50 * time.Millisecond,
		BufferLimit: 1 << 20,
		StopGrace:   2 * time.Second,
	}
}

// normalize fills zero fields with defaults so a partially configured
// Options value is still safe to use.
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = def.ReadTimeout
	}
	if o.QuietWindow <= 0 {
		o.QuietWindow = def.QuietWindow
	}
	if o.BufferLimit <= 0 {
		o.BufferLimit = def.BufferLimit
	}
	if o.StopGrace <= 0 {
		o.StopGrace = def.StopGrace
	}
	return o
}
