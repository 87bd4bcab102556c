// Package server wires the tool providers into the two control surfaces:
// the MCP stdio loop that a controller drives, and the optional HTTP ops
// surface for health, metrics and local tooling.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ptybridge/ptybridge/internal/config"
	"github.com/ptybridge/ptybridge/internal/logging"
	"github.com/ptybridge/ptybridge/internal/monitoring"
	"github.com/ptybridge/ptybridge/internal/mux"
	"github.com/ptybridge/ptybridge/internal/project"
	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/tools"
	"github.com/ptybridge/ptybridge/internal/tools/muxer"
	networkProvider "github.com/ptybridge/ptybridge/internal/tools/network"
	processProvider "github.com/ptybridge/ptybridge/internal/tools/process"
	serialProvider "github.com/ptybridge/ptybridge/internal/tools/serial"
	systemProvider "github.com/ptybridge/ptybridge/internal/tools/system"
	"github.com/ptybridge/ptybridge/internal/tools/terminal"
)

// Version is stamped by the build; the default marks development builds.
var Version = "dev"

// Server owns every long-lived component and both control surfaces.
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	sessions   *session.Manager
	mux        *mux.Mux
	projects   *project.Store
	dispatcher *tools.Dispatcher

	httpSrv *http.Server
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config) (*Server, error) {
	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	}
	if cfg.Logging.File != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, cfg.Logging.File)
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics := monitoring.NewMetrics()

	sessions := session.NewManager(session.Options{
		ReadTimeout: cfg.Session.ReadTimeout,
		QuietWindow: cfg.Session.ReadQuietWindow,
		BufferLimit: cfg.Session.ReadBufferLimit,
		StopGrace:   cfg.Session.StopGrace,
	})
	muxMgr := mux.New(cfg.Mux.Binary, cfg.Mux.Socket)

	projects, err := project.NewStore(cfg.Project.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("init project store: %w", err)
	}

	registry := tools.NewRegistry()
	providers := []tools.Provider{
		terminal.NewProvider(sessions, projects),
		processProvider.NewProvider(sessions, projects),
		networkProvider.NewProvider(sessions),
		serialProvider.NewProvider(sessions),
		muxer.NewProvider(muxMgr, projects, metrics),
		systemProvider.NewProvider(sessions, muxMgr, projects),
	}
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("register provider: %w", err)
		}
	}

	logger.Info("providers registered",
		zap.Any("stats", registry.Stats()),
		zap.Bool("tmux_available", muxMgr.Available()),
	)

	dispatcher := tools.NewDispatcher(registry, logger, metrics)
	dispatcher.AfterDispatch(func() {
		metrics.SetActiveSessions(sessions.ActiveCount())
	})

	return &Server{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		sessions:   sessions,
		mux:        muxMgr,
		projects:   projects,
		dispatcher: dispatcher,
	}, nil
}

// Dispatcher exposes the dispatcher, mainly for tests.
func (s *Server) Dispatcher() *tools.Dispatcher { return s.dispatcher }

// Run serves the stdio control loop until ctx is canceled or the controller
// disconnects. When the HTTP ops surface is enabled it runs alongside.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.cfg.Server.Enabled {
		go func() {
			if err := s.serveHTTP(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("http server failed", zap.Error(err))
				cancel()
			}
		}()
	}

	err := s.runStdio(ctx)
	s.shutdown()
	return err
}

// serveHTTP runs the gin ops surface.
func (s *Server) serveHTTP() error {
	if !s.cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(s.logger, s.metrics))
	router.Use(corsMiddleware())
	if s.cfg.RateLimit.Enabled {
		router.Use(rateLimit(s.cfg.RateLimit))
	}
	s.registerRoutes(router)

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.logger.Info("http ops surface listening", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpSrv.ListenAndServe()
}

// shutdown stops every live session and flushes the logger. Multiplexer
// sessions deliberately survive: they are detached tmux state the caller can
// reattach to after a restart.
func (s *Server) shutdown() {
	s.logger.Info("shutting down",
		zap.Int("active_sessions", s.sessions.ActiveCount()))

	s.sessions.StopAll()

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(ctx)
	}

	_ = s.logger.Sync()
}
