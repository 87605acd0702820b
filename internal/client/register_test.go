package client_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/chat/chattest"
	"github.com/omochice/minechat/internal/client"
	"github.com/omochice/minechat/internal/credential"
)

func TestRegistrar_Register(t *testing.T) {
	req := require.New(t)
	store := &memStore{}
	conn := chattest.NewConn(
		greeting,
		"",
		namePrompt,
		`{"nickname": "bob", "account_hash": "abc123"}`,
		welcome,
	)

	cred, err := client.NewRegistrar(store, zaptest.NewLogger(t)).Register(context.Background(), conn, "bobby")

	req.NoError(err)
	req.Equal(credential.Credential{Nickname: "bob", AccountHash: "abc123"}, cred)
	req.Equal([]credential.Credential{{Nickname: "bob", AccountHash: "abc123"}}, store.Saved())
	req.Equal([]string{"\n", "bobby\n\n"}, frames(conn))
	req.Zero(conn.CloseCalls(), "registration must leave the connection open")
}

func TestRegistrar_Register_KeepsRequestedNickname(t *testing.T) {
	store := &memStore{}
	conn := chattest.NewConn(greeting, namePrompt, `{"account_hash": "abc123"}`)

	cred, err := client.NewRegistrar(store, zaptest.NewLogger(t)).Register(context.Background(), conn, "bobby")

	require.NoError(t, err)
	require.Equal(t, credential.Credential{Nickname: "bobby", AccountHash: "abc123"}, cred)
}

func TestRegistrar_Register_CollapsesNewlinesInNickname(t *testing.T) {
	conn := chattest.NewConn(greeting, namePrompt, `{"nickname": "a b", "account_hash": "h"}`)

	_, err := client.NewRegistrar(&memStore{}, zaptest.NewLogger(t)).Register(context.Background(), conn, "a\nb")

	require.NoError(t, err)
	require.Equal(t, []string{"\n", "a b\n\n"}, frames(conn))
}

func TestRegistrar_Register_Failure(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		eof     bool
		wantErr error
	}{
		{
			name:    "null reply",
			lines:   []string{greeting, namePrompt, "null"},
			wantErr: chat.ErrNoAccountHash,
		},
		{
			name:    "reply without hash",
			lines:   []string{greeting, namePrompt, `{"nickname": "bob"}`},
			wantErr: chat.ErrNoAccountHash,
		},
		{
			name:    "empty hash",
			lines:   []string{greeting, namePrompt, `{"nickname": "bob", "account_hash": ""}`},
			wantErr: chat.ErrNoAccountHash,
		},
		{
			name:    "malformed reply",
			lines:   []string{greeting, namePrompt, "Welcome!"},
			wantErr: chat.ErrMalformedReply,
		},
		{
			name:    "server hangs up before prompt",
			lines:   []string{greeting},
			eof:     true,
			wantErr: io.EOF,
		},
		{
			name:    "server hangs up before greeting",
			eof:     true,
			wantErr: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			store := &memStore{}
			conn := chattest.NewConn(tt.lines...)
			if tt.eof {
				conn.EndOfStream()
			}

			_, err := client.NewRegistrar(store, zaptest.NewLogger(t)).Register(context.Background(), conn, "bob")

			req.ErrorIs(err, tt.wantErr)
			req.Empty(store.Saved())
		})
	}
}

func TestRegistrar_Register_WriteFailure(t *testing.T) {
	conn := chattest.NewConn(greeting)
	conn.FailWrites(io.ErrClosedPipe)

	_, err := client.NewRegistrar(&memStore{}, zaptest.NewLogger(t)).Register(context.Background(), conn, "bob")

	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.Contains(t, err.Error(), client.AwaitingNamePrompt.String())
}

func TestRegistrar_Register_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.NewRegistrar(&memStore{}, zaptest.NewLogger(t)).Register(ctx, chattest.NewConn(), "bob")

	require.ErrorIs(t, err, context.Canceled)
}

func frames(conn *chattest.Conn) []string {
	var out []string
	for _, frame := range conn.Written() {
		out = append(out, string(frame))
	}
	return out
}
