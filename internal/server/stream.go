package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ptybridge/ptybridge/internal/session"
)

var upgrader = websocket.Upgrader{
	// The ops surface binds to loopback; origin checks add nothing there.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamPollInterval paces output polling for websocket tails.
const streamPollInterval = 200 * time.Millisecond

// handleStream tails a singleton session's output over a websocket. The
// session keeps running when the watcher disconnects.
func (s *Server) handleStream(c *gin.Context) {
	medium := session.Medium(c.DefaultQuery("session", "pty"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.WSConnections.Inc()
	defer s.metrics.WSConnections.Dec()

	read := s.streamReader(medium)
	if read == nil {
		conn.WriteJSON(gin.H{"type": "error", "message": "unknown session medium: " + string(medium)})
		return
	}

	conn.WriteJSON(gin.H{"type": "system", "message": "streaming " + string(medium) + " output"})

	// Detect client disconnect: reads fail once the peer goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	var lastErr string
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			out, err := read()
			if err != nil {
				// Report an inactive session once, then poll quietly
				// until it starts.
				if err.Error() != lastErr {
					lastErr = err.Error()
					conn.WriteJSON(gin.H{"type": "error", "message": lastErr})
				}
				continue
			}
			lastErr = ""
			if out == "" {
				continue
			}
			if err := conn.WriteJSON(gin.H{"type": "output", "data": out}); err != nil {
				return
			}
		}
	}
}

// streamReader returns a short-poll read function for the medium, or nil for
// an unknown one.
func (s *Server) streamReader(medium session.Medium) func() (string, error) {
	const pollBudget = 100 * time.Millisecond

	switch medium {
	case session.MediumPTY:
		return func() (string, error) { return s.sessions.PTY().Read(pollBudget) }
	case session.MediumProcess:
		return func() (string, error) { return s.sessions.Process().Read(pollBudget) }
	case session.MediumSocket:
		return func() (string, error) { return s.sessions.Socket().Read(pollBudget) }
	case session.MediumSerial:
		return func() (string, error) { return s.sessions.Serial().Read(pollBudget) }
	default:
		return nil
	}
}
