// Package web provides the HTTP server that receives storage object
// notifications and hands them to the dispatcher.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/config"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/importer"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/web/middleware"
)

// ObjectHandler processes one storage object end to end.
type ObjectHandler interface {
	HandleObject(ctx context.Context, bucket, name string) (importer.Summary, error)
}

// Server is the HTTP server for storage event notifications.
type Server struct {
	handler ObjectHandler
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server around the given object handler.
func NewServer(handler ObjectHandler) *Server {
	s := &Server{
		handler: handler,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/events", s.handleEvent)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(cfg config.ServerConfig) error {
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
