package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server wraps the read-only introspection router with a standard-library
// http.Server for graceful shutdown, mirroring the existing server.go's
// Start/Stop lifecycle with the WebSocket hub and streaming handlers
// removed — this surface never accepts input.
type Server struct {
	router      *chi.Mux
	httpServer  *http.Server
	rateLimiter *IPRateLimiter
}

// NewServer builds a Server. status is published to by the simulation
// thread once per tick; rateLimiter may be nil to disable rate limiting.
func NewServer(status *StatusPublisher, rateLimiter *IPRateLimiter) *Server {
	router := NewRouter(RouterConfig{Status: status, RateLimiter: rateLimiter})
	return &Server{router: router, rateLimiter: rateLimiter}
}

// Router exposes the underlying chi.Mux, mainly for tests.
func (s *Server) Router() *chi.Mux { return s.router }

// Start begins serving on addr. Blocks until Stop is called or the listener
// fails.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("introspection server listening on %s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server and the rate limiter's cleanup
// goroutine.
func (s *Server) Stop(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
