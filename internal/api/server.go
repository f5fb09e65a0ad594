package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-console/internal/campaign"
	"github.com/ignite/campaign-console/internal/config"
	"github.com/ignite/campaign-console/internal/history"
	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/logger"
	"github.com/ignite/campaign-console/internal/recipients"
)

// Server hosts the HTTP API in front of the coordinator, the reconciler
// and the history store.
type Server struct {
	config   config.ServerConfig
	handlers *Handlers
	router   *chi.Mux
	server   *http.Server
}

// NewServer assembles a server. store and cache may be nil when history
// persistence is not configured; the handlers fall back to the backend's
// own history endpoints.
func NewServer(
	cfg config.ServerConfig,
	client *mailapi.Client,
	coord *campaign.Coordinator,
	rec *recipients.Reconciler,
	store *history.Store,
	cache *history.Cache,
) *Server {
	handlers := NewHandlers(client, coord, rec, store, cache)
	return &Server{
		config:   cfg,
		handlers: handlers,
		router:   SetupRoutes(handlers),
	}
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start runs the HTTP server until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.GetHost(), s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 6 * time.Minute, // send requests can run long
		IdleTimeout:  60 * time.Second,
	}
	logger.Info("http server listening", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
