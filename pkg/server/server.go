// Package server implements the TCP coordination server: one listener, one
// session goroutine per connected diner, all sessions sharing one table.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opensymposium/opensymposium/pkg/table"
	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// Config holds server configuration.
type Config struct {
	// ListenAddress is the host:port to accept connections on.
	ListenAddress string

	// ShutdownGrace bounds how long Shutdown waits for open sessions.
	ShutdownGrace time.Duration
}

// Server accepts diner connections and routes their requests to the table.
type Server struct {
	cfg    Config
	table  *table.Table
	tel    *telemetry.Telemetry
	logger *telemetry.Logger

	listener net.Listener
	wg       sync.WaitGroup

	mu     sync.Mutex
	conns  map[string]net.Conn
	closed bool
}

// New creates a server for the given table.
func New(cfg Config, tbl *table.Table, tel *telemetry.Telemetry) (*Server, error) {
	if tbl == nil {
		return nil, fmt.Errorf("table is required")
	}
	if tel == nil {
		return nil, fmt.Errorf("telemetry is required")
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}

	return &Server{
		cfg:    cfg,
		table:  tbl,
		tel:    tel,
		logger: tel.Logger.NewComponentLogger("server"),
		conns:  make(map[string]net.Conn),
	}, nil
}

// Start binds the listener and launches the accept loop. It returns once
// the listener is bound; sessions run until ctx is cancelled or Shutdown is
// called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.listener = listener

	s.logger.WithField("address", listener.Addr().String()).Info("Coordination server listening")

	// Cancellation closes the listener, which unblocks Accept.
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	return nil
}

// Addr returns the bound listener address, for tests and logs.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// acceptLoop accepts connections until the listener closes.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.WithError(err).Warn("Accept failed")
			continue
		}

		connID := uuid.New().String()
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[connID] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleSession(ctx, connID, conn)

			s.mu.Lock()
			delete(s.conns, connID)
			s.mu.Unlock()
		}()
	}
}

// Shutdown closes the listener and all open connections, then waits for
// in-flight sessions up to the grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for _, conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, conn := range conns {
		_ = conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	grace := s.cfg.ShutdownGrace
	select {
	case <-done:
		s.logger.Info("Coordination server stopped")
		return nil
	case <-time.After(grace):
		return fmt.Errorf("shutdown timed out after %s", grace)
	case <-ctx.Done():
		return fmt.Errorf("shutdown cancelled: %w", ctx.Err())
	}
}
