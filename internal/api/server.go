package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/campaign-insights/internal/config"
	"github.com/ignite/campaign-insights/internal/pkg/logger"
)

// Server owns the HTTP listener for the insights API.
type Server struct {
	handler http.Handler
	server  *http.Server
}

// NewServer builds the router for cfg. Nothing listens until ListenAndServe.
func NewServer(cfg config.ServerConfig, h *Handlers, health *HealthChecker) *Server {
	handler := SetupRoutes(h, health, cfg.AllowedOrigins)
	return &Server{
		handler: handler,
		server: &http.Server{
			Handler:           handler,
			ReadTimeout:       30 * time.Second,
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe blocks serving on addr. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.server.Addr = addr
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	start := time.Now()
	err := s.server.Shutdown(ctx)
	logger.Info("http server drained", "took", time.Since(start).Round(time.Millisecond).String())
	return err
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}
