// Package main is the entry point for the ptybridge session-control server.
//
// The server exposes its tool surface over stdio to a remote controller and
// drives PTY, process, socket, serial, and tmux sessions on its behalf.
// An optional HTTP ops surface serves health, metrics, tool execution, and
// live output streaming over WebSocket.
//
// Configuration comes from PTYBRIDGE_-prefixed environment variables with
// CLI flag overrides:
//
//	# stdio only (default)
//	./server
//
//	# with the HTTP ops surface and development logging
//	./server -http -port 8090 -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
