// Package web provides the HTTP server and handlers for the inventory UI.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/web/middleware"
)

// Server is the HTTP server for the inventory application.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*middleware.RateLimiter
}

// NewServer creates a Server routing requests to service.
func NewServer(service *core.Service, cfg *config.Config) (*Server, error) {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() error {
	trusted, err := middleware.ParseTrustedProxies(s.cfg.Security.TrustedProxies)
	if err != nil {
		return fmt.Errorf("security config: %w", err)
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(trusted))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(middleware.SecurityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
	return nil
}

// writeLimit is the stricter limiter applied to form submissions.
func (s *Server) writeLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newLimiter(s.cfg.Rate.WriteLimit).Handler
}

func (s *Server) newLimiter(perMinute int) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	writes := s.writeLimit()

	// Categories
	s.router.Get("/", s.handleIndex)
	s.router.Route("/category", func(r chi.Router) {
		r.Get("/create", s.handleCategoryCreateForm)
		r.With(writes).Post("/create", s.handleCategoryCreate)
		r.Get("/{id}", s.handleCategoryDetail)
		r.Get("/{id}/update", s.handleCategoryUpdateForm)
		r.With(writes).Post("/{id}/update", s.handleCategoryUpdate)
		r.Get("/{id}/delete", s.handleCategoryDeleteForm)
		r.With(writes).Post("/{id}/delete", s.handleCategoryDelete)
	})

	// Items
	s.router.Get("/items", s.handleItemList)
	s.router.Route("/item", func(r chi.Router) {
		r.Get("/create", s.handleItemCreateForm)
		r.With(writes).Post("/create", s.handleItemCreate)
		r.Get("/{id}", s.handleItemDetail)
		r.Get("/{id}/update", s.handleItemUpdateForm)
		r.With(writes).Post("/{id}/update", s.handleItemUpdate)
		r.Get("/{id}/delete", s.handleItemDeleteForm)
		r.With(writes).Post("/{id}/delete", s.handleItemDelete)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleAPICategories)
		r.Get("/categories/{id}/items", s.handleAPICategoryItems)
		r.Get("/items", s.handleAPIItems)
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, core.ErrNotFound, http.StatusNotFound)
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

// Shutdown gracefully stops the server and the rate limiter cleanup loops.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
