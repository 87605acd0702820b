package server

import (
	"bytes"
	"time"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/internal/transport/tcp"
	"github.com/omochice/minechat/internal/transport/ws"
)

// sniffTimeout bounds the wait for a WebSocket upgrade request. Plain
// minechat clients stay silent until the server speaks first.
const sniffTimeout = 250 * time.Millisecond

var httpMethods = [][]byte{
	[]byte("GET "),
	[]byte("POST"),
	[]byte("PUT "),
	[]byte("HEAD"),
}

// isHTTP reports whether peek starts with an HTTP request method.
func isHTTP(peek []byte) bool {
	for _, method := range httpMethods {
		if bytes.HasPrefix(peek, method) {
			return true
		}
	}
	return false
}

// detectProtocol decides whether conn carries WebSocket frames or raw lines,
// upgrading it in the former case.
func detectProtocol(conn *tcp.Conn) (chat.Conn, error) {
	// A timeout only means the client is waiting for the greeting.
	peek, _ := conn.Peek(len(httpMethods[0]), sniffTimeout)
	if !isHTTP(peek) {
		return conn, nil
	}

	raw, reader := conn.Hijack()
	upgraded, err := ws.Upgrade(raw, reader)
	if err != nil {
		return nil, err
	}
	return upgraded, nil
}
