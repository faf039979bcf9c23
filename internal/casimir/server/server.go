// Package server wraps internal/casimir/scene.Scene behind a TCP listener:
// each accepted connection becomes one emulated device, framed with
// internal/nci/transport.SocketTransport.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/scene"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/transport"
)

// Server accepts TCP connections on behalf of a Scene.
type Server struct {
	addr     string
	scene    *scene.Scene
	listener net.Listener

	shutdown      chan struct{}
	shutdownOnce  sync.Once
	wg            sync.WaitGroup
	listenerReady chan struct{}
}

// New creates a Server that will listen on addr and hand accepted
// connections to sc.
func New(addr string, sc *scene.Scene) *Server {
	return &Server{
		addr:          addr,
		scene:         sc,
		shutdown:      make(chan struct{}),
		listenerReady: make(chan struct{}),
	}
}

// Serve binds the listener and blocks accepting connections until ctx is
// cancelled or Stop is called. It also drives the Scene's RF relay loop.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("casimir: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	close(s.listenerReady)

	logger.Info("casimir: listening", "address", s.addr)

	go s.scene.Run(ctx)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.shutdown:
		}
	}()

	s.wg.Add(1)
	s.acceptLoop(ctx)
	s.wg.Done()

	s.wg.Wait()
	return nil
}

// WaitReady returns a channel closed once the listener is bound.
func (s *Server) WaitReady() <-chan struct{} {
	return s.listenerReady
}

// Addr returns the bound listener's address. Valid only after WaitReady
// closes.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				logger.Debug("casimir: accept error", "error", err)
				return
			}
		}

		t := transport.NewSocketTransport(conn)
		if err := s.scene.Accept(ctx, t); err != nil {
			logger.Warn("casimir: rejecting connection", "remote", conn.RemoteAddr(), "error", err)
			_ = conn.Close()
			continue
		}
	}
}

// Stop closes the listener, unblocking acceptLoop. It is safe to call more
// than once and concurrently with Serve.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Debug("casimir: listener close error", "error", err)
			}
		}
	})
}
