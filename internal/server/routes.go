package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ptybridge/ptybridge/internal/types"
)

// executeRequest is the POST /tools/execute body.
type executeRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	router.GET("/tools", s.handleListTools)
	router.POST("/tools/execute", s.handleExecute)
	router.GET("/stream", s.handleStream)
}

func (s *Server) handleHealth(c *gin.Context) {
	s.metrics.UpdateUptime()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  Version,
		"sessions": s.sessions.Status(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"services": s.dispatcher.Registry().List(nil),
		"stats":    s.dispatcher.Registry().Stats(),
	})
}

func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.dispatcher.Dispatch(c.Request.Context(), req.ToolID, req.Params, &types.Context{
		RequestID: c.GetString(requestIDKey),
		Caller:    "http",
	})
	c.JSON(http.StatusOK, result)
}
