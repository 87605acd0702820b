package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Handler serves one accepted connection. The connection is closed once the
// handler returns; ctx is cancelled when the server stops.
type Handler func(ctx context.Context, conn *Conn)

// Server accepts TCP connections and hands each one to a Handler.
type Server struct {
	address  string
	handler  Handler
	log      *zap.Logger
	mu       sync.Mutex
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a TCP server that uses the provided Handler.
func New(address string, handler Handler, log *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address: address,
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start binds the address and serves until Stop is called.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Listen binds the listening socket without accepting yet.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.Info("TCP server started", zap.String("address", listener.Addr().String()))
	return nil
}

// Serve accepts connections until Stop is called.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("serve called before listen on %s", s.address)
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
				s.log.Warn("Failed to accept TCP connection", zap.Error(err))
				continue
			}
		}

		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handle(NewConn(conn))
	}
}

// Stop stops the TCP server and waits for running handlers.
func (s *Server) Stop() {
	s.mu.Lock()
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handle(conn *Conn) {
	defer s.wg.Done()
	defer conn.Close()
	s.handler(s.ctx, conn)
}
