// Package server exposes sessions over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-finder/internal/session"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// CookieName holds the signed session token.
const CookieName = "rf_session"

// Server is the HTTP front-end.
type Server struct {
	sessions *session.Manager
	signer   *session.TokenSigner
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server

	cookieTTL time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithCookieTTL sets the session cookie lifetime.
func WithCookieTTL(ttl time.Duration) Option {
	return func(s *Server) { s.cookieTTL = ttl }
}

// WithHandler mounts an extra handler, e.g. the Telegram webhook.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.router.Handle(pattern, h)
	}
}

// New builds the router and the underlying http.Server listening on port.
func New(port string, sessions *session.Manager, signer *session.TokenSigner, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		signer:    signer,
		logger:    logger,
		validate:  validator.New(),
		router:    chi.NewRouter(),
		cookieTTL: session.DefaultTTL,
	}
	s.routes()
	for _, opt := range opts {
		opt(s)
	}
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			r.Post("/search", s.handleSearch)
			r.Post("/category", s.handleCategory)
			r.Get("/view", s.handleView)

			r.Route("/shopping-list", func(r chi.Router) {
				r.Get("/", s.handleShoppingList)
				r.Put("/", s.handleSetShoppingList)
				r.Post("/recipes", s.handleAddRecipeToList)
				r.Delete("/items/{item}", s.handleRemoveItem)
			})

			r.Route("/plan", func(r chi.Router) {
				r.Get("/", s.handlePlan)
				r.Put("/{day}/{meal}", s.handleAssign)
				r.Delete("/{day}/{meal}", s.handleClearSlot)
			})
		})
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve http: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
