// Package client implements the two minechat roles: the listener that streams
// the chat into a history file, and the sender that authenticates and posts a
// single message. Both share the connection, reconnection and handshake logic
// defined here.
package client

import (
	"context"
	"strings"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/credential"
	"github.com/omochice/minechat/internal/history"
)

// CredentialStore loads and persists the account credential.
type CredentialStore interface {
	Load() (credential.Credential, bool)
	Save(cred credential.Credential)
}

// HistoryWriter records received chat lines.
type HistoryWriter interface {
	Append(rec history.Record) (string, error)
}

// readLine returns the next non-blank line, trimmed.
func readLine(ctx context.Context, conn chat.Conn) (string, error) {
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
}
