package chat

import (
	"errors"

	"github.com/omochice/minechat/pkg/protocol"
)

// Transient connectivity.
var (
	ErrConnectionRefused = errors.New("connection refused")
)

// Protocol and authorization failures.
var (
	ErrRejected       = errors.New("account hash rejected by server")
	ErrNoAccountHash  = errors.New("no credential in response")
	ErrMalformedReply = protocol.ErrMalformedReply
)

// Configuration failures.
var (
	ErrNoCredential = errors.New("neither token nor nickname provided")
	ErrEmptyMessage = errors.New("message is empty")
)

// ErrTransmit wraps a failure to deliver the outgoing message.
var ErrTransmit = errors.New("message not transmitted")

// IsProtocolError reports whether err ends the current handshake attempt.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrRejected) ||
		errors.Is(err, ErrNoAccountHash) ||
		errors.Is(err, ErrMalformedReply)
}
