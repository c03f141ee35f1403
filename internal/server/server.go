// Package server runs an HTTP handler with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server is one HTTP listener.
type Server struct {
	name string
	http *http.Server
	log  *zap.Logger
}

// New creates a Server for handler on addr. name identifies it in logs.
func New(name, addr string, handler http.Handler, l *zap.Logger) *Server {
	return &Server{
		name: name,
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: l.With(zap.String("server", name)),
	}
}

// Start listens on the configured address and serves until Shutdown. It returns nil
// after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("HTTP server running", zap.String("address", lis.Addr().String()))
	if err := s.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", s.name, err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server...")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown: %w", s.name, err)
	}
	return nil
}
