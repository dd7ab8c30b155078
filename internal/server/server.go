// Package server implements the chat backend: POST /api/chat streams a
// model reply as plain text chunks.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/diogo/llamavoice/internal/models"
)

const shutdownTimeout = 10 * time.Second

// Server is the chat backend.
type Server struct {
	addr           string
	provider       Provider
	systemPrompt   string
	allowedOrigins []string
	rateLimit      int
}

// Option configures a Server
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithSystemPrompt prepends a system message to every chat.
func WithSystemPrompt(prompt string) Option {
	return func(s *Server) {
		s.systemPrompt = prompt
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithRateLimit sets chat requests per IP per minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.rateLimit = perMinute
	}
}

// New creates a Server backed by provider.
func New(provider Provider, opts ...Option) *Server {
	s := &Server{
		addr:           ":3000",
		provider:       provider,
		allowedOrigins: []string{"*"},
		rateLimit:      60,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handleHealth)

	r.Group(func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
		}
		r.Post(models.DefaultEndpoint, s.handleChat)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", s.addr).Str("provider", s.provider.Name()).Msg("chat backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down chat backend")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
