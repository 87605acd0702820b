package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/credential"
	"github.com/omochice/minechat/pkg/protocol"
)

// AuthorizationState is a step of the authorization handshake.
type AuthorizationState int

const (
	AuthorizationStart AuthorizationState = iota
	ReadyToSendToken
	AwaitingResult
	Authorized
	Rejected
)

// String returns the string representation of AuthorizationState
func (s AuthorizationState) String() string {
	switch s {
	case AuthorizationStart:
		return "START"
	case ReadyToSendToken:
		return "READY_TO_SEND_TOKEN"
	case AwaitingResult:
		return "AWAITING_RESULT"
	case Authorized:
		return "AUTHORIZED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Authorizer exchanges a stored account hash for a writable session.
type Authorizer struct {
	log *zap.Logger
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(log *zap.Logger) *Authorizer {
	return &Authorizer{log: log}
}

// Authorize presents token on a fresh write channel connection. On success the
// connection stays open and accepts submissions. A rejected token yields an
// error wrapping chat.ErrRejected; nothing more may be sent on conn then.
func (a *Authorizer) Authorize(ctx context.Context, conn chat.Conn, token string) (credential.Credential, error) {
	state := AuthorizationStart
	fail := func(err error) (credential.Credential, error) {
		a.log.Debug("Authorization failed", zap.Stringer("state", state), zap.Error(err))
		return credential.Credential{}, fmt.Errorf("authorization failed at %s: %w", state, err)
	}

	greeting, err := readLine(ctx, conn)
	if err != nil {
		return fail(err)
	}
	a.log.Debug("Server greeting", zap.String("line", greeting))

	state = ReadyToSendToken
	if err := conn.Write(ctx, protocol.Submission(token)); err != nil {
		return fail(err)
	}

	state = AwaitingResult
	response, err := readLine(ctx, conn)
	if err != nil {
		return fail(err)
	}
	a.log.Debug("Server response", zap.String("line", response))

	reply, err := protocol.ParseReply(response)
	if err != nil {
		return fail(err)
	}
	if state = authorizationResult(reply); state == Rejected {
		return fail(chat.ErrRejected)
	}

	cred := credential.Credential{Nickname: reply.Nickname, AccountHash: token}
	a.log.Info("Authorized", zap.String("nickname", cred.Nickname), zap.Stringer("state", Authorized))
	return cred, nil
}

// authorizationResult is the AwaitingResult transition: null or an empty
// object rejects the token, anything else authorizes it.
func authorizationResult(reply *protocol.Reply) AuthorizationState {
	if reply == nil || *reply == (protocol.Reply{}) {
		return Rejected
	}
	return Authorized
}
