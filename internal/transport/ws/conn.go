// Package ws carries minechat lines inside WebSocket text frames.
//
// Frame boundaries carry no meaning: a frame may hold several lines or only a
// part of one, and lines are still delimited by '\n'.
package ws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/pkg/protocol"
)

var aLongTimeAgo = time.Unix(1, 0)

const closeTimeout = 100 * time.Millisecond

// Conn adapts a WebSocket connection to chat.Conn interface.
type Conn struct {
	conn      net.Conn
	rw        io.ReadWriter
	state     ws.State
	pending   bytes.Buffer
	writeMu   sync.Mutex
	status    atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an upgraded connection. r holds bytes already buffered during
// the handshake and may be nil. state tells which side of the connection we
// are, which decides frame masking.
func NewConn(conn net.Conn, r io.Reader, state ws.State) *Conn {
	if r == nil {
		r = conn
	}
	c := &Conn{
		conn: conn,
		rw: struct {
			io.Reader
			io.Writer
		}{r, conn},
		state: state,
	}
	c.status.Store(int32(chat.StatusOpen))
	return c
}

// ReadLine implements chat.Conn.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	for {
		if i := bytes.IndexByte(c.pending.Bytes(), '\n'); i >= 0 {
			return protocol.DecodeLine(c.pending.Next(i + 1)), nil
		}

		data, op, err := wsutil.ReadData(c.rw, c.state)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if !isEndOfStream(err) {
				return "", err
			}
			if c.pending.Len() > 0 {
				return protocol.DecodeLine(c.pending.Next(c.pending.Len())), nil
			}
			return "", io.EOF
		}

		if op == ws.OpText || op == ws.OpBinary {
			c.pending.Write(data)
		}
	}
}

// Write implements chat.Conn.
// The whole frame goes out as a single WebSocket text message.
func (c *Conn) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetWriteDeadline(aLongTimeAgo)
	})
	defer stop()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := wsutil.WriteMessage(c.conn, c.state, ws.OpText, frame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Close implements chat.Conn.
// A close frame is sent on a best effort basis before the socket is closed.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.status.Store(int32(chat.StatusClosed))

		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
		_ = wsutil.WriteMessage(c.conn, c.state, ws.OpClose, nil)
		c.writeMu.Unlock()

		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Status implements chat.Conn.
func (c *Conn) Status() chat.Status {
	return chat.Status(c.status.Load())
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func isEndOfStream(err error) bool {
	var closed wsutil.ClosedError
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.As(err, &closed)
}
