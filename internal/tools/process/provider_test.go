package process

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/types"
)

func newProvider() *Provider {
	return NewProvider(session.NewManager(session.DefaultOptions()), nil)
}

func exec(t *testing.T, p *Provider, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	res, err := p.Execute(context.Background(), toolID, params, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestSpawnSendKill(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "spawn", map[string]interface{}{"command": "cat"})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "Process started")
	assert.NotZero(t, res.Data["pid"])

	res = exec(t, p, "send-proc", map[string]interface{}{"message": "ping"})
	require.True(t, res.Success)
	assert.Equal(t, "ping\n", res.Content)

	res = exec(t, p, "kill-proc", nil)
	assert.True(t, res.Success)
}

func TestSpawnWithArgs(t *testing.T) {
	p := newProvider()
	defer exec(t, p, "kill-proc", nil)

	res := exec(t, p, "spawn", map[string]interface{}{
		"command": "sh",
		"args":    []interface{}{"-c", "echo ready; cat"},
	})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "ready")
}

func TestKillWithoutProcess(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "kill-proc", nil)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "no active process")
}

func TestSendWithoutProcess(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "send-proc", map[string]interface{}{"message": "x"})
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "no active session")
}
