package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/marmos91/dittoapi/internal/logger"
)

// ErrNotBound is returned by Serve when Bind has not succeeded.
var ErrNotBound = errors.New("api: listener not bound")

// ErrAlreadyBound is returned by a second Bind.
var ErrAlreadyBound = errors.New("api: listener already bound")

// Server provides the HTTP server for the REST API.
//
// Binding and serving are separate steps: Bind reserves the socket so that
// port conflicts surface synchronously, Serve then blocks accepting
// connections until Shutdown.
type Server struct {
	server *http.Server
	config Config

	mu       sync.Mutex
	listener net.Listener

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewServer creates a new API HTTP server around handler.
//
// The server is created unbound. Call Bind and then Serve.
func NewServer(config Config, handler http.Handler) *Server {
	config.applyDefaults()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           handler,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Bind listens on the configured TCP port on all interfaces.
func (s *Server) Bind() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyBound
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	logger.Debug("API server bound", logger.KeyPort, s.boundPort())
	return nil
}

// Serve accepts connections on the bound listener. It blocks until
// Shutdown and returns nil on graceful close.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return ErrNotBound
	}
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires. It is safe to call multiple times and before Serve.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			s.shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.KeyError, err)
		} else {
			logger.Info("API server stopped gracefully")
		}

		// A listener that never reached Serve is not tracked by http.Server.
		s.mu.Lock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.mu.Unlock()
	})
	return s.shutdownErr
}

// Port returns the bound TCP port, or the configured port before Bind.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundPort()
}

func (s *Server) boundPort() int {
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.config.Port
}

// Addr returns the bound address, or the configured one before Bind.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}
