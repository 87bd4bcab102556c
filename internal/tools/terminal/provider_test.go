package terminal

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

func TestConnectSendDisconnect(t *testing.T) {
	p := newProvider()
	defer exec(t, p, "disconnect", nil)

	res := exec(t, p, "connect", map[string]interface{}{"command": "cat"})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "PTY session started")

	res = exec(t, p, "send", map[string]interface{}{"message": "hello"})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "hello")

	res = exec(t, p, "disconnect", nil)
	assert.True(t, res.Success)
}

func TestConnectTwiceFails(t *testing.T) {
	p := newProvider()
	defer exec(t, p, "disconnect", nil)

	require.True(t, exec(t, p, "connect", map[string]interface{}{"command": "cat"}).Success)

	res := exec(t, p, "connect", map[string]interface{}{"command": "cat"})
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "already active")
}

func TestSendWithoutSession(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "send", map[string]interface{}{"message": "x"})
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "no active session")
}

func TestResizeActiveSession(t *testing.T) {
	p := newProvider()
	defer exec(t, p, "disconnect", nil)

	require.True(t, exec(t, p, "connect", map[string]interface{}{"command": "cat"}).Success)

	res := exec(t, p, "resize", map[string]interface{}{
		"width": float64(120), "height": float64(40),
	})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "120x40")
}

func TestClearWithoutSession(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "clear", nil)
	assert.False(t, res.Success)
}

func TestUnknownTool(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "reboot", nil)
	assert.False(t, res.Success)
}
