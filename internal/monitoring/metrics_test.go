package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionGauges(t *testing.T) {
	m := NewMetrics()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))
	m.SetActiveSessions(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))
	m.SetActiveSessions(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))

	m.SetMuxSessions(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MuxSessions))
}

func TestToolCallMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordToolCall("terminal", "connect", "ok", 0)
	m.RecordToolCall("terminal", "connect", "ok", 0)
	m.RecordToolError("terminal", "connect", "invalid_arguments")

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.ToolCalls.WithLabelValues("terminal", "connect", "ok")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.ToolErrors.WithLabelValues("terminal", "connect", "invalid_arguments")))
}
