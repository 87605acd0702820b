// Package transport selects the connection transport by name.
package transport

import (
	"fmt"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/transport/tcp"
	"github.com/omochice/minechat/internal/transport/ws"
)

const (
	TCP       = "tcp"
	WebSocket = "ws"
)

// NewDialer returns the dialer for the named transport.
func NewDialer(name string) (chat.Dialer, error) {
	switch name {
	case TCP, "":
		return tcp.NewDialer(), nil
	case WebSocket:
		return ws.NewDialer(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}
