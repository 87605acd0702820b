package transport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omochice/minechat/internal/transport"
	"github.com/omochice/minechat/internal/transport/tcp"
	"github.com/omochice/minechat/internal/transport/ws"
)

func TestNewDialer(t *testing.T) {
	d, err := transport.NewDialer(transport.TCP)
	require.NoError(t, err)
	require.IsType(t, &tcp.Dialer{}, d)

	d, err = transport.NewDialer("")
	require.NoError(t, err)
	require.IsType(t, &tcp.Dialer{}, d)

	d, err = transport.NewDialer(transport.WebSocket)
	require.NoError(t, err)
	require.IsType(t, &ws.Dialer{}, d)

	_, err = transport.NewDialer("carrier-pigeon")
	require.Error(t, err)
}
