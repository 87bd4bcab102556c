package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessLifecycle(t *testing.T) {
	p := NewProcess(DefaultOptions())
	assert.Equal(t, StateIdle, p.State())

	err := p.Start(ProcessSpec{Command: "cat"})
	require.NoError(t, err)
	assert.Equal(t, StateActive, p.State())
	assert.NotZero(t, p.PID())
	assert.True(t, p.Alive())

	require.NoError(t, p.Send("hello"))
	out, err := p.Read(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	require.NoError(t, p.Stop())
	assert.Equal(t, StateClosed, p.State())
	assert.False(t, p.Alive())
}

func TestProcessStartWhileActive(t *testing.T) {
	p := NewProcess(DefaultOptions())
	require.NoError(t, p.Start(ProcessSpec{Command: "cat"}))
	defer p.Stop()

	err := p.Start(ProcessSpec{Command: "cat"})
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestProcessStopReleasesPumpWithPendingOutput(t *testing.T) {
	p := NewProcess(DefaultOptions())
	require.NoError(t, p.Start(ProcessSpec{
		Command: "head",
		Args:    []string{"-c", "524288", "/dev/zero"},
	}))

	// Let the child flood well past the pump's buffered capacity without
	// any intervening Read.
	time.Sleep(200 * time.Millisecond)

	pm := p.pump
	require.NoError(t, p.Stop())

	select {
	case <-pm.done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader goroutine still running after Stop")
	}
}

func TestProcessRestartAfterStop(t *testing.T) {
	p := NewProcess(DefaultOptions())
	require.NoError(t, p.Start(ProcessSpec{Command: "cat"}))
	require.NoError(t, p.Stop())

	require.NoError(t, p.Start(ProcessSpec{Command: "cat"}))
	assert.Equal(t, StateActive, p.State())
	require.NoError(t, p.Stop())
}

func TestProcessOperationsWhenIdle(t *testing.T) {
	p := NewProcess(DefaultOptions())

	assert.ErrorIs(t, p.Send("x"), ErrNotActive)
	_, err := p.Read(0)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Zero(t, p.PID())
	assert.False(t, p.Alive())
}

func TestProcessStopIdempotent(t *testing.T) {
	p := NewProcess(DefaultOptions())
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
	assert.Equal(t, StateClosed, p.State())
}

func TestProcessCapturesStderr(t *testing.T) {
	p := NewProcess(DefaultOptions())
	require.NoError(t, p.Start(ProcessSpec{
		Command: "sh",
		Args:    []string{"-c", "echo oops >&2; cat"},
	}))
	defer p.Stop()

	out, err := p.Read(time.Second)
	require.NoError(t, err)
	assert.Contains(t, out, "oops")
}

func TestProcessEmptyCommand(t *testing.T) {
	p := NewProcess(DefaultOptions())
	assert.Error(t, p.Start(ProcessSpec{}))
	assert.Equal(t, StateIdle, p.State())
}
