package chat_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/chat/chattest"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status chat.Status
		want   string
	}{
		{chat.StatusConnecting, "CONNECTING"},
		{chat.StatusOpen, "OPEN"},
		{chat.StatusClosed, "CLOSED"},
		{chat.Status(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestAddress(t *testing.T) {
	require.Equal(t, "minechat.dvmn.org:5000", chat.Address("minechat.dvmn.org", 5000))
	require.Equal(t, "[::1]:5050", chat.Address("::1", 5050))
}

func TestChattestConn_ReadsScriptThenEOF(t *testing.T) {
	req := require.New(t)
	conn := chattest.NewConn("first", "second")
	conn.EndOfStream()

	line, err := conn.ReadLine(context.Background())
	req.NoError(err)
	req.Equal("first", line)

	line, err = conn.ReadLine(context.Background())
	req.NoError(err)
	req.Equal("second", line)

	_, err = conn.ReadLine(context.Background())
	req.ErrorIs(err, io.EOF)
}

func TestChattestConn_ReadHonoursContext(t *testing.T) {
	conn := chattest.NewConn()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conn.ReadLine(ctx)

	require.ErrorIs(t, err, context.Canceled)
}

func TestIsProtocolError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{chat.ErrRejected, true},
		{fmt.Errorf("authorize: %w", chat.ErrRejected), true},
		{fmt.Errorf("register: %w", chat.ErrNoAccountHash), true},
		{fmt.Errorf("register: %w", chat.ErrMalformedReply), true},
		{chat.ErrConnectionRefused, false},
		{chat.ErrNoCredential, false},
		{errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			require.Equal(t, tt.want, chat.IsProtocolError(tt.err))
		})
	}
}
