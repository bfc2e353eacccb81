package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Server wraps http.Server with the timeouts and shutdown handling shared by
// the services.
type Server struct {
	httpServer *http.Server
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// WithTimeouts overrides the read and write timeouts.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.httpServer.ReadTimeout = read
		s.httpServer.WriteTimeout = write
	}
}

// NewServer creates a Server serving handler, typically a gin engine.
func NewServer(handler http.Handler, opts ...ServerOption) *Server {
	srv := &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8090"
	}
	return srv
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	log.Printf("Starting server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
