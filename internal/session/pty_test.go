package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPTYLifecycle(t *testing.T) {
	p := NewPTY(DefaultOptions())
	assert.Equal(t, StateIdle, p.State())

	err := p.Start(PTYSpec{Command: "cat"})
	require.NoError(t, err)
	assert.Equal(t, StateActive, p.State())
	assert.Equal(t, "cat", p.Command())
	assert.True(t, p.Alive())

	require.NoError(t, p.Send("hello"))
	out, err := p.Read(time.Second)
	require.NoError(t, err)
	assert.Contains(t, out, "hello")

	require.NoError(t, p.Stop())
	assert.Equal(t, StateClosed, p.State())
	assert.False(t, p.Alive())
}

func TestPTYStartWhileActive(t *testing.T) {
	p := NewPTY(DefaultOptions())
	require.NoError(t, p.Start(PTYSpec{Command: "cat"}))
	defer p.Stop()

	err := p.Start(PTYSpec{Command: "cat"})
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestPTYRestartAfterStop(t *testing.T) {
	p := NewPTY(DefaultOptions())
	require.NoError(t, p.Start(PTYSpec{Command: "cat"}))
	require.NoError(t, p.Stop())

	require.NoError(t, p.Start(PTYSpec{Command: "cat"}))
	assert.Equal(t, StateActive, p.State())
	require.NoError(t, p.Stop())
}

func TestPTYOperationsWhenIdle(t *testing.T) {
	p := NewPTY(DefaultOptions())

	assert.ErrorIs(t, p.Send("x"), ErrNotActive)
	assert.ErrorIs(t, p.SendRaw([]byte{0x03}), ErrNotActive)
	assert.ErrorIs(t, p.Resize(80, 24), ErrNotActive)
	_, err := p.Read(0)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestPTYResize(t *testing.T) {
	p := NewPTY(DefaultOptions())
	require.NoError(t, p.Start(PTYSpec{Command: "cat", Cols: 120, Rows: 40}))
	defer p.Stop()

	require.NoError(t, p.Resize(100, 30))
	assert.Error(t, p.Resize(0, 30))
	assert.Error(t, p.Resize(100, -1))
}

func TestPTYStopIdempotent(t *testing.T) {
	p := NewPTY(DefaultOptions())
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
	assert.Equal(t, StateClosed, p.State())
}
