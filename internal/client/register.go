package client

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/credential"
	"github.com/omochice/minechat/pkg/protocol"
)

// RegistrationState is a step of the registration handshake.
type RegistrationState int

const (
	RegistrationStart RegistrationState = iota
	AwaitingNamePrompt
	AwaitingNamePrompt2
	ReadyToSendName
	AwaitingCredentials
	RegistrationSucceeded
	RegistrationFailed
)

// String returns the string representation of RegistrationState
func (s RegistrationState) String() string {
	switch s {
	case RegistrationStart:
		return "START"
	case AwaitingNamePrompt:
		return "AWAITING_NAME_PROMPT"
	case AwaitingNamePrompt2:
		return "AWAITING_NAME_PROMPT_2"
	case ReadyToSendName:
		return "READY_TO_SEND_NAME"
	case AwaitingCredentials:
		return "AWAITING_CREDENTIALS"
	case RegistrationSucceeded:
		return "SUCCEEDED"
	case RegistrationFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Registrar turns a desired nickname into a persisted credential.
type Registrar struct {
	store CredentialStore
	log   *zap.Logger
}

// NewRegistrar creates a Registrar that saves new credentials to store.
func NewRegistrar(store CredentialStore, log *zap.Logger) *Registrar {
	return &Registrar{store: store, log: log}
}

// Register runs the registration handshake on a fresh write channel
// connection. The returned nickname is the one the server assigned, which may
// differ from the requested one. The connection is left open.
func (r *Registrar) Register(ctx context.Context, conn chat.Conn, nickname string) (credential.Credential, error) {
	r.log.Info("Registering new user", zap.String("nickname", nickname))

	state := RegistrationStart
	fail := func(err error) (credential.Credential, error) {
		r.log.Debug("Registration failed", zap.Stringer("state", state), zap.Error(err))
		return credential.Credential{}, fmt.Errorf("registration failed at %s: %w", state, err)
	}

	greeting, err := readLine(ctx, conn)
	if err != nil {
		return fail(err)
	}
	r.log.Debug("Server greeting", zap.String("line", greeting))

	state = AwaitingNamePrompt
	if err := conn.Write(ctx, protocol.Line("")); err != nil {
		return fail(err)
	}

	state = AwaitingNamePrompt2
	prompt, err := readLine(ctx, conn)
	if err != nil {
		return fail(err)
	}
	r.log.Debug("Server prompt", zap.String("line", prompt))

	state = ReadyToSendName
	if err := conn.Write(ctx, protocol.Submission(nickname)); err != nil {
		return fail(err)
	}

	state = AwaitingCredentials
	response, err := readLine(ctx, conn)
	if err != nil {
		return fail(err)
	}
	r.log.Debug("Server response", zap.String("line", response))

	reply, err := protocol.ParseReply(response)
	if err != nil {
		return fail(err)
	}
	if reply == nil || reply.AccountHash == "" {
		return fail(chat.ErrNoAccountHash)
	}

	cred := credential.Credential{
		Nickname:    lo.CoalesceOrEmpty(reply.Nickname, nickname),
		AccountHash: reply.AccountHash,
	}
	r.store.Save(cred)

	r.log.Info("User registered", zap.String("nickname", cred.Nickname), zap.Stringer("state", RegistrationSucceeded))
	return cred, nil
}
