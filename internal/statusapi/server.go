// Package statusapi exposes a small Gin-based HTTP server reporting the
// live state of an in-flight run: health, a point-in-time stats snapshot,
// and recent run history. It is optional and only starts when a listen
// address is configured. Grounded on the teacher's internal/api.Server.
package statusapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/dnsblast/internal/engine"
	"github.com/jroosing/dnsblast/internal/history"
	"github.com/jroosing/dnsblast/internal/statusapi/handlers"
	"github.com/jroosing/dnsblast/internal/statusapi/middleware"
)

// Config configures the status server.
type Config struct {
	Addr   string
	APIKey string
	Store  *history.Store
}

// Server is the live status HTTP server.
type Server struct {
	logger     *slog.Logger
	handler    *handlers.Handler
	router     *gin.Engine
	httpServer *http.Server
}

// New builds a Server but does not start listening.
func New(cfg Config, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(logger)
	h.SetStore(cfg.Store)
	registerRoutes(router, h, cfg.APIKey)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, handler: h, router: router, httpServer: httpServer}
}

// Handler returns the underlying HTTP handler, for tests driving requests
// directly without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetStatsFunc wires the live counters snapshot, typically
// (*engine.Coordinator).Snapshot, once the run's coordinator exists.
func (s *Server) SetStatsFunc(fn func() engine.Summary) {
	s.handler.SetStatsFunc(fn)
}

// ListenAndServe blocks serving the status API until Shutdown is called.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the status API.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
