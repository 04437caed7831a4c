// Package server provides the HTTP API for the grant notice index.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/biolinker/grantindex/internal/config"
	"github.com/biolinker/grantindex/internal/store"
)

// Server is the HTTP server for the grantindex API.
type Server struct {
	store  *store.Store
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(st *store.Store, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		store:  st,
		config: cfg,
		logger: logger,
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/v1/notices", s.handleAddNotice)
	r.Post("/api/v1/notices/batch", s.handleAddNotices)
	r.Get("/api/v1/notices", s.handleListNotices)
	r.Get("/api/v1/notices/{id}", s.handleGetNotice)
	r.Delete("/api/v1/notices/{id}", s.handleDeleteNotice)
	r.Post("/api/v1/papers", s.handleAddPaper)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/match", s.handleMatch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
