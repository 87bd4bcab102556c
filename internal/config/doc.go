// Package config provides 12-factor configuration management for ptybridge.
//
// Configuration is loaded from PTYBRIDGE_-prefixed environment variables with
// sensible defaults. CLI flags can override environment variables for
// development flexibility.
//
// Configuration Sections:
//   - Server: optional HTTP ops surface (port, host, enabled)
//   - Session: bounded-read timeout, quiet window, buffer ceiling
//   - Mux: terminal multiplexer binary and socket
//   - Project: project registry base directory
//   - Logging: log level, output format and optional file sink
//   - RateLimit: rate limiting for the HTTP ops surface
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("drain timeout %s\n", cfg.Session.ReadTimeout)
//
// Environment Variables:
//   - PTYBRIDGE_PORT, PTYBRIDGE_HOST, PTYBRIDGE_HTTP_ENABLED
//   - PTYBRIDGE_READ_TIMEOUT, PTYBRIDGE_READ_BUFFER_LIMIT
//   - PTYBRIDGE_TMUX_BINARY, PTYBRIDGE_BASE_DIR
//   - PTYBRIDGE_LOG_LEVEL, PTYBRIDGE_LOG_DEV, PTYBRIDGE_LOG_FILE
package config
