// Package server provides the HTTP API for the interview service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Alex-Pennington/MARS-History-Project/internal/auth"
	"github.com/Alex-Pennington/MARS-History-Project/internal/config"
	"github.com/Alex-Pennington/MARS-History-Project/internal/interview"
)

// Service wires the interview orchestrator and token store into a chi
// router and owns the HTTP server lifecycle.
type Service struct {
	version   string
	config    *config.Config
	manager   *interview.Manager
	tokens    *auth.Store
	router    chi.Router
	server    *http.Server
	startTime time.Time
}

// NewService creates the HTTP service and registers all routes.
func NewService(version string, cfg *config.Config, manager *interview.Manager, tokens *auth.Store) *Service {
	svc := &Service{
		version:   version,
		config:    cfg,
		manager:   manager,
		tokens:    tokens,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}
	svc.setupRoutes()
	return svc
}

// Router exposes the configured router, used by tests and by callers
// that embed the service in a larger mux.
func (s *Service) Router() chi.Router {
	return s.router
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	// Unauthenticated surface: health, audio playback, token exchange.
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/audio/{filename}", s.handleAudio)
	s.router.Post("/api/auth", s.handleAuth)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireToken(s.tokens, s.config.RequireAuth))

		r.Post("/api/session", s.handleCreateSession)
		r.Get("/api/sessions", s.handleListSessions)
		r.Get("/api/session/{id}", s.handleGetSession)
		r.Post("/api/session/{id}/message", s.handleMessage)
		r.Post("/api/session/{id}/end", s.handleEndSession)
		r.Delete("/api/session/{id}", s.handleDeleteSession)
		r.Get("/api/transcript/{id}", s.handleTranscript)
		r.Get("/api/extraction/{id}", s.handleExtraction)
		r.Get("/api/session/{id}/extractions", s.handleExtractionHistory)
		r.Get("/api/voices", s.handleVoices)
	})
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", s.version).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// requestLogger logs each request with zerolog after it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
