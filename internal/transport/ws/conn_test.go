package ws_test

import (
	"context"
	"io"
	"net"
	"testing"

	gobwas "github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/require"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/transport/ws"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ chat.Conn = (*ws.Conn)(nil)
}

func TestConn_ReadLine_ReassemblesFrames(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	conn := ws.NewConn(client, nil, gobwas.StateClientSide)

	go func() {
		wsutil.WriteServerText(server, []byte("[greet"))
		wsutil.WriteServerText(server, []byte("ing]\nhello\nwor"))
		wsutil.WriteServerText(server, []byte("ld\n"))
		server.Close()
	}()

	req := require.New(t)
	ctx := context.Background()

	for _, want := range []string{"[greeting]", "hello", "world"} {
		line, err := conn.ReadLine(ctx)
		req.NoError(err)
		req.Equal(want, line)
	}

	_, err := conn.ReadLine(ctx)
	req.ErrorIs(err, io.EOF)
}

func TestConn_ReadLine_UnterminatedTail(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	conn := ws.NewConn(client, nil, gobwas.StateClientSide)

	go func() {
		wsutil.WriteServerText(server, []byte("tail"))
		server.Close()
	}()

	line, err := conn.ReadLine(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tail", line)

	_, err = conn.ReadLine(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestConn_Write(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := ws.NewConn(client, nil, gobwas.StateClientSide)

	go func() {
		if err := conn.Write(context.Background(), []byte("hello\n\n")); err != nil {
			t.Errorf("Write() error = %v", err)
		}
	}()

	data, err := wsutil.ReadClientText(server)
	require.NoError(t, err)
	require.Equal(t, "hello\n\n", string(data))
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	conn := ws.NewConn(client, nil, gobwas.StateClientSide)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	require.Equal(t, chat.StatusClosed, conn.Status())
}
