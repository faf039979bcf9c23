package statusapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/scene"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the read-only HTTP status/health/metrics server, run alongside
// the NCI listener on a separate port (internal/config's StatusAPIConfig).
type Server struct {
	addr       string
	httpServer *http.Server

	listener     net.Listener
	listenerErr  error
	listenerDone chan struct{}

	shutdownOnce sync.Once
}

// NewServer builds a statusapi Server bound to addr, serving sc's device
// status and reg's Prometheus metrics.
func NewServer(addr string, sc *scene.Scene, reg *prometheus.Registry) *Server {
	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Handler:      NewRouter(sc, reg),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		listenerDone: make(chan struct{}),
	}
}

// Serve binds addr and blocks until ctx is cancelled, at which point it
// shuts down gracefully and returns.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.listenerErr = err
		close(s.listenerDone)
		return fmt.Errorf("statusapi: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	close(s.listenerDone)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("statusapi: listening", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("statusapi: server failed: %w", err)
	}
}

// Addr blocks until the listener is bound (or Serve fails to bind) and
// returns its address.
func (s *Server) Addr() (net.Addr, error) {
	<-s.listenerDone
	if s.listenerErr != nil {
		return nil, s.listenerErr
	}
	return s.listener.Addr(), nil
}

// Stop gracefully shuts down the server. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if shutErr := s.httpServer.Shutdown(ctx); shutErr != nil {
			err = fmt.Errorf("statusapi: shutdown: %w", shutErr)
			logger.Error("statusapi: shutdown error", "error", shutErr)
			return
		}
		logger.Info("statusapi: stopped gracefully")
	})
	return err
}
