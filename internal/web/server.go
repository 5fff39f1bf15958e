// Package web provides the HTTP API for records: CRUD on individual records
// plus CSV and Excel import and export of the whole collection.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/exchange"
	"github.com/JonMunkholm/records/internal/record"
	mw "github.com/JonMunkholm/records/internal/web/middleware"
)

// Store is the persistence the handlers need. store.Repository satisfies it.
type Store interface {
	FindAll(ctx context.Context) ([]record.Record, error)
	FindByID(ctx context.Context, id int64) (record.Record, error)
	Save(ctx context.Context, rec record.Record) (record.Record, error)
	DeleteByID(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the records API.
type Server struct {
	store    Store
	exchange *exchange.Service
	cfg      config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server with all middleware and routes installed.
func NewServer(st Store, svc *exchange.Service, cfg config.Config) *Server {
	s := &Server{
		store:    st,
		exchange: svc,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(mw.SecurityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst).Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.Auth(s.cfg.Security))

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Post("/", s.handleCreateEntity)
			r.Get("/{id}", s.handleGetEntity)
			r.Put("/{id}", s.handleUpdateEntity)
			r.Delete("/{id}", s.handleDeleteEntity)
		})

		r.Route("/data", func(r chi.Router) {
			r.Get("/export/csv", s.handleExport(exchange.FormatCSV))
			r.Get("/export/excel", s.handleExport(exchange.FormatWorkbook))

			r.Group(func(r chi.Router) {
				// Imports are expensive; they get a tighter budget on top
				// of the general limit.
				if s.cfg.Rate.Enabled {
					r.Use(mw.NewRateLimiter(s.cfg.Rate.ImportPerMinute, 1).Handler)
				}
				r.Post("/import/csv", s.handleImport(exchange.FormatCSV))
				r.Post("/import/excel", s.handleImport(exchange.FormatWorkbook))
			})
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
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

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
