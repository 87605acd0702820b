package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/omochice/minechat/internal/chat"
)

// Dialer opens plain TCP connections.
type Dialer struct {
	dialer net.Dialer
}

// NewDialer creates a Dialer with the operating system defaults.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial implements chat.Dialer.
func (d *Dialer) Dial(ctx context.Context, host string, port int) (chat.Conn, error) {
	address := chat.Address(host, port)
	conn, err := d.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%s: %w", address, chat.ErrConnectionRefused)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return NewConn(conn), nil
}
