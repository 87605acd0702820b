// Package server implements a local minechat server: a listen channel that
// broadcasts every posted message and a write channel that registers,
// authorizes and accepts messages. Both channels accept plain TCP and
// WebSocket clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/transport/tcp"
	"github.com/omochice/minechat/pkg/protocol"
)

const (
	Greeting   = "Hello %username%! Enter your personal hash or leave it empty to create new account."
	NamePrompt = "Enter preferred nickname below:"
	Welcome    = "Welcome to chat! Post your message below. End it with an empty line."
)

// outgoingQueue is the number of broadcast lines buffered per subscriber.
const outgoingQueue = 64

// Server represents a minechat server
type Server struct {
	listen   *tcp.Server
	write    *tcp.Server
	hub      *chat.Hub
	accounts *Accounts
	log      *zap.Logger
}

// New creates a Server serving the listen channel on listenAddress and the
// write channel on writeAddress.
func New(listenAddress, writeAddress string, log *zap.Logger) *Server {
	s := &Server{
		hub:      chat.NewHub(),
		accounts: NewAccounts(),
		log:      log,
	}
	s.listen = tcp.New(listenAddress, s.handleListener, log.Named("listen"))
	s.write = tcp.New(writeAddress, s.handleWriter, log.Named("write"))
	return s
}

// Listen binds both channels.
func (s *Server) Listen() error {
	if err := s.listen.Listen(); err != nil {
		return err
	}
	if err := s.write.Listen(); err != nil {
		s.listen.Stop()
		return err
	}
	return nil
}

// Serve accepts clients on both channels until Stop is called.
func (s *Server) Serve() error {
	var g errgroup.Group
	g.Go(s.listen.Serve)
	g.Go(s.write.Serve)
	return g.Wait()
}

// Start binds both channels and serves until Stop is called.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop stops both channels and waits for every client handler.
func (s *Server) Stop() {
	s.write.Stop()
	s.listen.Stop()
}

// ListenAddr returns the listen channel address.
func (s *Server) ListenAddr() string {
	return s.listen.Addr()
}

// WriteAddr returns the write channel address.
func (s *Server) WriteAddr() string {
	return s.write.Addr()
}

// ClientCount returns the number of connected listen channel clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Accounts returns the account registry.
func (s *Server) Accounts() *Accounts {
	return s.accounts
}

// Broadcast sends text to every listen channel client.
func (s *Server) Broadcast(text string) {
	delivered := s.hub.Broadcast(text)
	s.log.Debug("Broadcast", zap.String("text", text), zap.Int("clients", delivered))
}

// handleListener streams broadcasts to one listen channel client.
func (s *Server) handleListener(ctx context.Context, accepted *tcp.Conn) {
	conn, err := detectProtocol(accepted)
	if err != nil {
		s.log.Warn("Failed to accept listener", zap.String("remote", accepted.RemoteAddr()), zap.Error(err))
		return
	}

	client := chat.NewClient(conn, outgoingQueue)
	s.hub.Register(client)
	s.log.Info("Listener connected", zap.String("remote", conn.RemoteAddr()))

	// Listeners never speak; reading only detects the hang-up.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, err := conn.ReadLine(ctx); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.hub.Unregister(client)
		conn.Close()
		<-gone
		s.log.Info("Listener disconnected", zap.String("remote", conn.RemoteAddr()))
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case frame := <-client.Outgoing:
			if err := conn.Write(ctx, frame); err != nil {
				s.log.Warn("Failed to send message to listener", zap.Error(err))
				return
			}
		}
	}
}

// handleWriter runs the handshake and then accepts messages from one write
// channel client.
func (s *Server) handleWriter(ctx context.Context, accepted *tcp.Conn) {
	conn, err := detectProtocol(accepted)
	if err != nil {
		s.log.Warn("Failed to accept writer", zap.String("remote", accepted.RemoteAddr()), zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.log.With(zap.String("remote", conn.RemoteAddr()))
	account, err := s.handshake(ctx, conn)
	if err != nil {
		if !errors.Is(err, io.EOF) && ctx.Err() == nil {
			log.Info("Handshake failed", zap.Error(err))
		}
		return
	}
	log.Info("Writer authorized", zap.String("nickname", account.Nickname))

	var parts []string
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return
		}
		if text := strings.TrimSpace(line); text != "" {
			parts = append(parts, text)
			continue
		}
		if len(parts) == 0 {
			continue
		}
		s.Broadcast(fmt.Sprintf("%s: %s", account.Nickname, strings.Join(parts, " ")))
		parts = parts[:0]
	}
}

// handshake greets the client and either registers a new account or
// authorizes an existing one. An unknown hash is answered with null.
func (s *Server) handshake(ctx context.Context, conn chat.Conn) (protocol.Reply, error) {
	if err := conn.Write(ctx, protocol.Line(Greeting)); err != nil {
		return protocol.Reply{}, err
	}
	hash, err := conn.ReadLine(ctx)
	if err != nil {
		return protocol.Reply{}, err
	}

	var account protocol.Reply
	if hash = strings.TrimSpace(hash); hash == "" {
		if err := conn.Write(ctx, protocol.Line(NamePrompt)); err != nil {
			return protocol.Reply{}, err
		}
		nickname, err := conn.ReadLine(ctx)
		if err != nil {
			return protocol.Reply{}, err
		}
		account = s.accounts.Register(nickname)
		s.log.Info("Account registered", zap.String("nickname", account.Nickname))
	} else {
		var ok bool
		if account, ok = s.accounts.Lookup(hash); !ok {
			null, _ := protocol.EncodeReply(nil)
			_ = conn.Write(ctx, null)
			return protocol.Reply{}, chat.ErrRejected
		}
	}

	reply, err := protocol.EncodeReply(&account)
	if err != nil {
		return protocol.Reply{}, err
	}
	if err := conn.Write(ctx, reply); err != nil {
		return protocol.Reply{}, err
	}
	if err := conn.Write(ctx, protocol.Line(Welcome)); err != nil {
		return protocol.Reply{}, err
	}
	return account, nil
}
