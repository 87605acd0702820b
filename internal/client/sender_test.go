package client_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/chat/chattest"
	"github.com/omochice/minechat/internal/chat/mocks"
	"github.com/omochice/minechat/internal/client"
	"github.com/omochice/minechat/internal/credential"
)

func newSender(t *testing.T, conn chat.Conn, store client.CredentialStore) *client.Sender {
	t.Helper()
	dialer := mocks.NewMockDialer(gomock.NewController(t))
	if conn != nil {
		dialer.EXPECT().Dial(gomock.Any(), "localhost", 5050).Return(conn, nil).Times(1)
	}
	return client.NewSender(dialer, "localhost", 5050, store, zaptest.NewLogger(t))
}

func TestSender_Send_WithExplicitToken(t *testing.T) {
	req := require.New(t)
	conn := chattest.NewConn(greeting, `{"nickname": "bob", "account_hash": "abc123"}`, welcome)
	store := &memStore{cred: credential.Credential{Nickname: "old", AccountHash: "stored"}}

	cred, err := newSender(t, conn, store).Send(context.Background(), client.Request{
		Token:   "abc123",
		Message: "hello\nworld",
	})

	req.NoError(err)
	req.Equal("bob", cred.Nickname)
	req.Equal([]string{"abc123\n\n", "hello world\n\n"}, frames(conn))
	req.Equal(1, conn.CloseCalls())
	req.Empty(store.Saved())
}

func TestSender_Send_WithStoredToken(t *testing.T) {
	conn := chattest.NewConn(greeting, `{"nickname": "bob", "account_hash": "stored"}`)
	store := &memStore{cred: credential.Credential{Nickname: "bob", AccountHash: "stored"}}

	_, err := newSender(t, conn, store).Send(context.Background(), client.Request{
		Nickname: "ignored",
		Message:  "hi",
	})

	require.NoError(t, err)
	require.Equal(t, []string{"stored\n\n", "hi\n\n"}, frames(conn))
}

func TestSender_Send_RegistersOnSameConnection(t *testing.T) {
	req := require.New(t)
	conn := chattest.NewConn(greeting, namePrompt, `{"nickname": "bob_1", "account_hash": "abc123"}`, welcome)
	store := &memStore{}

	cred, err := newSender(t, conn, store).Send(context.Background(), client.Request{
		Nickname: "bob",
		Message:  "first post",
	})

	req.NoError(err)
	req.Equal(credential.Credential{Nickname: "bob_1", AccountHash: "abc123"}, cred)
	req.Equal([]credential.Credential{cred}, store.Saved())
	req.Equal([]string{"\n", "bob\n\n", "first post\n\n"}, frames(conn))
	req.Equal(1, conn.CloseCalls())
}

func TestSender_Send_InvalidCredentialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	t.Run("registers when a nickname is given", func(t *testing.T) {
		req := require.New(t)
		store := credential.NewStore(path, zaptest.NewLogger(t))
		conn := chattest.NewConn(greeting, namePrompt, `{"nickname": "bob", "account_hash": "fresh"}`)

		_, err := newSender(t, conn, store).Send(context.Background(), client.Request{
			Nickname: "bob",
			Message:  "hi",
		})

		req.NoError(err)
		req.Equal([]string{"\n", "bob\n\n", "hi\n\n"}, frames(conn))

		saved, ok := store.Load()
		req.True(ok)
		req.Equal("fresh", saved.AccountHash)
	})

	t.Run("fails without a nickname", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
		store := credential.NewStore(path, zaptest.NewLogger(t))

		_, err := newSender(t, nil, store).Send(context.Background(), client.Request{Message: "hi"})

		require.ErrorIs(t, err, chat.ErrNoCredential)
	})
}

func TestSender_Send_EmptyMessage(t *testing.T) {
	_, err := newSender(t, nil, &memStore{}).Send(context.Background(), client.Request{
		Token:   "abc123",
		Message: " \n ",
	})

	require.ErrorIs(t, err, chat.ErrEmptyMessage)
}

func TestSender_Send_Rejected(t *testing.T) {
	req := require.New(t)
	conn := chattest.NewConn(greeting, "null")

	_, err := newSender(t, conn, &memStore{}).Send(context.Background(), client.Request{
		Token:   "stale",
		Message: "never sent",
	})

	req.ErrorIs(err, chat.ErrRejected)
	req.Equal([]string{"stale\n\n"}, frames(conn))
	req.Equal(1, conn.CloseCalls())
}

func TestSender_Send_RegistrationFailure(t *testing.T) {
	conn := chattest.NewConn(greeting, namePrompt, "null")

	_, err := newSender(t, conn, &memStore{}).Send(context.Background(), client.Request{
		Nickname: "bob",
		Message:  "never sent",
	})

	require.ErrorIs(t, err, chat.ErrNoAccountHash)
	require.Equal(t, []string{"\n", "bob\n\n"}, frames(conn))
}

func TestSender_Send_TransmitFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConn(ctrl)

	gomock.InOrder(
		conn.EXPECT().ReadLine(gomock.Any()).Return(greeting, nil),
		conn.EXPECT().Write(gomock.Any(), []byte("abc123\n\n")).Return(nil),
		conn.EXPECT().ReadLine(gomock.Any()).Return(`{"nickname": "bob", "account_hash": "abc123"}`, nil),
		conn.EXPECT().Write(gomock.Any(), []byte("hi\n\n")).Return(io.ErrClosedPipe),
	)
	conn.EXPECT().Close().Return(nil).Times(1)

	_, err := newSender(t, conn, &memStore{}).Send(context.Background(), client.Request{
		Token:   "abc123",
		Message: "hi",
	})

	req.ErrorIs(err, chat.ErrTransmit)
	req.ErrorIs(err, io.ErrClosedPipe)
}

func TestSender_Send_ConnectionRefused(t *testing.T) {
	dialer := mocks.NewMockDialer(gomock.NewController(t))
	dialer.EXPECT().Dial(gomock.Any(), "localhost", 5050).Return(nil, chat.ErrConnectionRefused)

	_, err := client.NewSender(dialer, "localhost", 5050, &memStore{}, zaptest.NewLogger(t)).
		Send(context.Background(), client.Request{Token: "abc123", Message: "hi"})

	require.ErrorIs(t, err, chat.ErrConnectionRefused)
}
