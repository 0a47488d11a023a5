// Package server exposes the HTTP surface: the inbound SMS webhook, an
// outbound send endpoint, and a health check.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oppscout/oppscout/internal/batcher"
	"github.com/oppscout/oppscout/internal/config"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/queue"
)

// Store is the database surface the HTTP handlers need.
type Store interface {
	Ping(ctx context.Context) error
	SaveOpportunity(ctx context.Context, opp *database.Opportunity) error
}

// Server is the HTTP front end.
type Server struct {
	httpServer      *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration
}

// NewRouter builds the route tree with middleware mounted.
func NewRouter(b *batcher.Batcher, q queue.Queue, db Store, logger *slog.Logger) chi.Router {
	h := &handlers{
		batcher: b,
		queue:   q,
		db:      db,
		log:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/twilio", func(r chi.Router) {
		r.Post("/webhook/sms", h.receiveSMS)
		r.Post("/send/sms", h.sendSMS)
	})
	r.Post("/admin/opportunities", h.createOpportunity)
	r.Get("/health", h.health)

	return r
}

// New creates the HTTP server with routes mounted.
func New(cfg config.ServerConfig, b *batcher.Batcher, q queue.Queue, db Store, log *slog.Logger) *Server {
	logger := log.With("component", "server")
	r := NewRouter(b, q, db, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log:             logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	return <-errCh
}

// requestLogger logs one line per request with status and duration.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("Request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
