package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/credential"
	"github.com/omochice/minechat/pkg/protocol"
)

// Request describes one message to post.
type Request struct {
	// Token is an explicit account hash. When empty the stored credential
	// is used.
	Token string
	// Nickname is registered when no token is available.
	Nickname string
	Message  string
}

// Sender posts a single message on the write channel.
type Sender struct {
	dialer     chat.Dialer
	host       string
	port       int
	store      CredentialStore
	registrar  *Registrar
	authorizer *Authorizer
	log        *zap.Logger
}

// NewSender creates a Sender for the write channel at host:port.
func NewSender(dialer chat.Dialer, host string, port int, store CredentialStore, log *zap.Logger) *Sender {
	return &Sender{
		dialer:     dialer,
		host:       host,
		port:       port,
		store:      store,
		registrar:  NewRegistrar(store, log),
		authorizer: NewAuthorizer(log),
		log:        log,
	}
}

// Send authenticates and submits req.Message over a single connection. It
// returns the credential the message was posted under.
func (s *Sender) Send(ctx context.Context, req Request) (credential.Credential, error) {
	token := req.Token
	if token == "" {
		if stored, ok := s.store.Load(); ok {
			token = stored.AccountHash
		}
	}
	if token == "" && req.Nickname == "" {
		return credential.Credential{}, chat.ErrNoCredential
	}
	if protocol.Clean(req.Message) == "" {
		return credential.Credential{}, chat.ErrEmptyMessage
	}

	conn, err := s.dialer.Dial(ctx, s.host, s.port)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("connect to %s: %w", chat.Address(s.host, s.port), err)
	}
	defer conn.Close()

	cred, err := s.authenticate(ctx, conn, token, req.Nickname)
	if err != nil {
		return credential.Credential{}, err
	}

	if err := conn.Write(ctx, protocol.Submission(req.Message)); err != nil {
		return cred, fmt.Errorf("%w: %w", chat.ErrTransmit, err)
	}
	s.log.Info("Message sent", zap.String("nickname", cred.Nickname))
	return cred, nil
}

// authenticate authorizes token, or registers nickname when there is none.
// A fresh registration is not followed by a second greeting: the server's
// registration reply already authorizes the new hash.
func (s *Sender) authenticate(ctx context.Context, conn chat.Conn, token, nickname string) (credential.Credential, error) {
	if token != "" {
		return s.authorizer.Authorize(ctx, conn, token)
	}

	cred, err := s.registrar.Register(ctx, conn, nickname)
	if err != nil {
		return credential.Credential{}, err
	}
	reply := &protocol.Reply{Nickname: cred.Nickname, AccountHash: cred.AccountHash}
	if authorizationResult(reply) != Authorized {
		return credential.Credential{}, chat.ErrRejected
	}
	return cred, nil
}

