// Package httpapi serves the chat pipeline over HTTP with gin.
//
// Streaming endpoints write server-sent events whose data lines carry one
// JSON object each: {"chunk": text}, then exactly one {"done": true} or
// {"error": message}.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "canvasrag"

// Probe checks one backing dependency for the health endpoint.
// A nil Check reports the dependency as disabled.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config wires the server to the driving ports.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// AllowedOrigins lists origins accepted by the CORS middleware.
	AllowedOrigins []string

	// Version is reported by the root endpoint.
	Version string

	Chat     driving.ChatService
	Index    driving.IndexService
	Analysis driving.AnalysisService
	Context  driving.ContextService

	// Probes feed the health endpoint.
	Probes []Probe

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// MCP serves the MCP streamable transport under /mcp when set.
	MCP http.Handler
}

// Server is the HTTP transport.
type Server struct {
	cfg    Config
	router *gin.Engine
}

// ErrMissingChatService is returned when the server is built without chat.
var ErrMissingChatService = errors.New("httpapi: chat service is required")

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Chat == nil {
		return nil, ErrMissingChatService
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{cfg: cfg, router: gin.New()}
	s.router.Use(gin.Recovery(), RequestID(), RequestLogger(), CORS(cfg.AllowedOrigins))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/chat", s.handleChat)
	s.router.POST("/query-context", s.handleQueryContext)
	s.router.POST("/index-user-data", s.handleIndex)
	s.router.POST("/analyze-canvas", s.handleAnalyze)

	if s.cfg.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.cfg.Metrics))
	}
	if s.cfg.MCP != nil {
		s.router.Any("/mcp", gin.WrapH(s.cfg.MCP))
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Endpoints lists the routes the server exposes.
func (s *Server) Endpoints() []string {
	routes := s.router.Routes()
	out := make([]string, 0, len(routes))
	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r.Path)
	}
	return out
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("HTTP API listening on %s", s.cfg.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
