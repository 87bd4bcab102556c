package muxer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptybridge/ptybridge/internal/mux"
	"github.com/ptybridge/ptybridge/internal/types"
)

func exec(t *testing.T, p *Provider, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	res, err := p.Execute(context.Background(), toolID, params, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestMissingBinaryReportsUnavailable(t *testing.T) {
	p := NewProvider(mux.New("definitely-not-a-real-tmux", ""), nil, nil)

	res := exec(t, p, "tmux-list", nil)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "tmux is not installed")
}

// Live tests run against an isolated tmux socket and skip when tmux is not
// installed.
func liveProvider(t *testing.T) *Provider {
	t.Helper()
	m := mux.New("tmux", fmt.Sprintf("ptybridge-test-%d", time.Now().UnixNano()))
	if !m.Available() {
		t.Skip("tmux not installed")
	}
	return NewProvider(m, nil, nil)
}

func TestLiveStartCaptureKill(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live tmux test")
	}
	p := liveProvider(t)
	defer exec(t, p, "tmux-kill", map[string]interface{}{"session_name": "livetest"})

	res := exec(t, p, "tmux-start", map[string]interface{}{
		"session_name": "livetest",
		"command":      "sh -c 'echo marker; sleep 30'",
	})
	require.True(t, res.Success, "start failed: %v", res.Error)

	// Give the pane a beat to produce output.
	time.Sleep(300 * time.Millisecond)

	res = exec(t, p, "tmux-capture", map[string]interface{}{
		"session_name": "livetest", "lines": float64(50),
	})
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "marker")

	res = exec(t, p, "tmux-list", nil)
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "livetest")

	res = exec(t, p, "tmux-kill", map[string]interface{}{"session_name": "livetest"})
	assert.True(t, res.Success)
}

func TestLiveKillMissingSucceeds(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live tmux test")
	}
	p := liveProvider(t)

	res := exec(t, p, "tmux-kill", map[string]interface{}{"session_name": "neverexisted"})
	assert.True(t, res.Success)
}

func TestLiveDuplicateStartFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live tmux test")
	}
	p := liveProvider(t)
	defer exec(t, p, "tmux-kill", map[string]interface{}{"session_name": "duptest"})

	require.True(t, exec(t, p, "tmux-start", map[string]interface{}{
		"session_name": "duptest", "command": "sleep 30",
	}).Success)

	res := exec(t, p, "tmux-start", map[string]interface{}{
		"session_name": "duptest", "command": "sleep 30",
	})
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "already exists")
}

func TestInvalidSessionName(t *testing.T) {
	p := liveProvider(t)

	res := exec(t, p, "tmux-send", map[string]interface{}{
		"session_name": "bad name", "command": "ls",
	})
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "invalid session name")
}
