// Package monitoring provides Prometheus metrics for the tool dispatcher and
// the HTTP ops surface.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Each instance carries its own
// registry so construction is safe in tests.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tool dispatch metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	ToolErrors   *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge
	MuxSessions    prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ptybridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ptybridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ptybridge_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"service", "tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ptybridge_tool_duration_seconds",
				Help:    "Tool call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "tool"},
		),
		ToolErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ptybridge_tool_errors_total",
				Help: "Total number of tool errors",
			},
			[]string{"service", "tool", "error_type"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ptybridge_sessions_active",
				Help: "Number of active singleton sessions",
			},
		),
		MuxSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ptybridge_mux_sessions",
				Help: "Number of tracked multiplexer sessions",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ptybridge_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ptybridge_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}
}

// RecordToolCall records a completed tool dispatch.
func (m *Metrics) RecordToolCall(service, tool, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(service, tool, status).Inc()
	m.ToolDuration.WithLabelValues(service, tool).Observe(duration.Seconds())
}

// RecordToolError records a tool failure by classification.
func (m *Metrics) RecordToolError(service, tool, errorType string) {
	m.ToolErrors.WithLabelValues(service, tool, errorType).Inc()
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetActiveSessions refreshes the singleton-session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.SessionsActive.Set(float64(n))
}

// SetMuxSessions refreshes the multiplexer-session gauge from the latest
// reconciled listing.
func (m *Metrics) SetMuxSessions(n int) {
	m.MuxSessions.Set(float64(n))
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
