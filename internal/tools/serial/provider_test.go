package serial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/types"
)

func newProvider() *Provider {
	return NewProvider(session.NewManager(session.DefaultOptions()))
}

func exec(t *testing.T, p *Provider, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	res, err := p.Execute(context.Background(), toolID, params, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestOpenMissingDevice(t *testing.T) {
	res := exec(t, newProvider(), "serial-open", map[string]interface{}{
		"device": "/dev/nonexistent-serial-port",
	})
	assert.False(t, res.Success)
}

func TestReadWithoutOpenPort(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "serial-read", map[string]interface{}{"timeout": float64(0.1)})
	assert.False(t, res.Success)
	assert.Contains(t, res.Text(), "no active session")

	res = exec(t, p, "serial-write", map[string]interface{}{"data": "AT"})
	assert.False(t, res.Success)

	res = exec(t, p, "serial-message", map[string]interface{}{"message": "AT"})
	assert.False(t, res.Success)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "serial-close", nil)
	assert.True(t, res.Success)

	res = exec(t, p, "serial-close", nil)
	assert.True(t, res.Success)
}

func TestUnknownOperation(t *testing.T) {
	res := exec(t, newProvider(), "serial-bogus", nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Text(), "unknown operation")
}
