package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isdmx/codelab/analysis"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/project"
	"github.com/isdmx/codelab/sandbox"
	"github.com/isdmx/codelab/store"
)

const (
	maxRequestBytes   = 8 << 20
	readHeaderTimeout = 10 * time.Second
)

// Analyzer produces a report for one file
type Analyzer interface {
	AnalyzeFile(f project.SourceFile, fallback string) (analysis.Report, error)
}

// Server is the HTTP façade over the execution engine, the analyzer and the
// project store.
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	executor sandbox.SandboxExecutor
	analyzer Analyzer
	store    store.Store
	router   *gin.Engine
	http     *http.Server
}

// New creates a Server with all routes registered
func New(cfg *config.Config, logger *zap.Logger, executor sandbox.SandboxExecutor, analyzer Analyzer, projects store.Store) *Server {
	// gin's debug output goes to stdout, which carries MCP frames on stdio
	if cfg.Logging.Mode == "production" || cfg.Server.Transport != "http" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		executor: executor,
		analyzer: analyzer,
		store:    projects,
		router:   gin.New(),
	}

	s.router.Use(gin.Recovery(), RequestLogger(logger), CORSMiddleware(cfg.CORS.AllowedOrigins), BodyLimit(maxRequestBytes))
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.Health)

	group := s.router.Group("/api")
	group.POST("/execute", s.Execute)
	group.POST("/analyze", s.Analyze)
	group.POST("/projects/save", s.SaveProject)
	group.GET("/projects/:id", s.GetProject)
}

// Handler returns the router, for tests and for mounting elsewhere.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the configured port and serves in the background. Binding
// errors are returned; later serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Server.HTTPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.logger.Info("starting HTTP API", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP API stopped", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("stopping HTTP API")
	return s.http.Shutdown(ctx)
}
