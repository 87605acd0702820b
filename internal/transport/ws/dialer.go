package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/gobwas/ws"

	"github.com/omochice/minechat/internal/chat"
)

// Dialer opens WebSocket connections to ws://host:port/.
type Dialer struct {
	dialer ws.Dialer
}

// NewDialer creates a Dialer with gobwas/ws defaults.
func NewDialer() *Dialer {
	return &Dialer{dialer: ws.DefaultDialer}
}

// Dial implements chat.Dialer.
func (d *Dialer) Dial(ctx context.Context, host string, port int) (chat.Conn, error) {
	url := "ws://" + chat.Address(host, port) + "/"
	conn, br, _, err := d.dialer.Dial(ctx, url)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%s: %w", url, chat.ErrConnectionRefused)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	if br == nil {
		return NewConn(conn, nil, ws.StateClientSide), nil
	}
	return NewConn(conn, br, ws.StateClientSide), nil
}

// Upgrade performs the server side handshake on an accepted connection.
// r holds the bytes already peeked from conn and may be nil.
func Upgrade(conn net.Conn, r io.Reader) (*Conn, error) {
	if r == nil {
		r = conn
	}
	rw := struct {
		io.Reader
		io.Writer
	}{r, conn}
	if _, err := ws.Upgrade(rw); err != nil {
		return nil, fmt.Errorf("websocket upgrade failed: %w", err)
	}
	return NewConn(conn, r, ws.StateServerSide), nil
}
