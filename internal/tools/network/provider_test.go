package network

import (
	"context"
	"net"
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

func startEcho(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				conn.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestSocketOpenMessageClose(t *testing.T) {
	p := newProvider()
	port := startEcho(t)

	res := exec(t, p, "socket-open", map[string]interface{}{
		"host": "127.0.0.1", "port": float64(port),
	})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "tcp://127.0.0.1:")

	res = exec(t, p, "socket-message", map[string]interface{}{
		"message": "hello", "prompt_timeout": float64(1),
	})
	require.True(t, res.Success)
	assert.Equal(t, "hello\n", res.Content)

	res = exec(t, p, "socket-close", nil)
	assert.True(t, res.Success)
}

func TestSocketWriteThenRead(t *testing.T) {
	p := newProvider()
	port := startEcho(t)

	require.True(t, exec(t, p, "socket-open", map[string]interface{}{
		"host": "127.0.0.1", "port": float64(port),
	}).Success)
	defer exec(t, p, "socket-close", nil)

	res := exec(t, p, "socket-write", map[string]interface{}{"data": "raw"})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "3 bytes")

	res = exec(t, p, "socket-read", map[string]interface{}{"timeout": float64(1)})
	require.True(t, res.Success)
	assert.Equal(t, "raw", res.Content)
}

func TestSocketReadWithoutConnection(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "socket-read", nil)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "no active session")
}

func TestSocketOpenBadPort(t *testing.T) {
	p := newProvider()

	res := exec(t, p, "socket-open", map[string]interface{}{
		"host": "127.0.0.1", "port": float64(0),
	})
	assert.False(t, res.Success)
}

func TestSocketTelnetBanner(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte{255, 253, 1})
		conn.Write([]byte("Welcome\r\n"))
		buf := make([]byte, 64)
		conn.Read(buf)
	}()

	p := newProvider()
	port := ln.Addr().(*net.TCPAddr).Port

	res := exec(t, p, "socket-telnet", map[string]interface{}{
		"host": "127.0.0.1", "port": float64(port),
	})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "Welcome")
	assert.NotContains(t, res.Content, "\xff")

	exec(t, p, "socket-close", nil)
}
