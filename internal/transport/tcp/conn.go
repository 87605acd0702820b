// Package tcp provides the plain TCP transport for minechat connections.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omochice/minechat/internal/chat"
	"github.com/omochice/minechat/pkg/protocol"
)

// aLongTimeAgo is a deadline in the past, used to unblock pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// Conn adapts net.Conn to chat.Conn interface.
type Conn struct {
	conn      net.Conn
	reader    *bufio.Reader
	writeMu   sync.Mutex
	status    atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established net.Conn.
func NewConn(conn net.Conn) *Conn {
	c := &Conn{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
	c.status.Store(int32(chat.StatusOpen))
	return c
}

// ReadLine implements chat.Conn.
// Several lines delivered by a single TCP segment are returned one by one.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	raw, err := c.reader.ReadBytes('\n')
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// The peer closed mid-line: hand out what arrived, EOF comes next.
		if errors.Is(err, io.EOF) && len(raw) > 0 {
			return protocol.DecodeLine(raw), nil
		}
		return "", err
	}
	return protocol.DecodeLine(raw), nil
}

// Write implements chat.Conn.
// net.Conn is unbuffered, so a successful Write is already flushed.
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

	if _, err := c.conn.Write(frame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.status.Store(int32(chat.StatusClosed))
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

// Peek returns up to n upcoming bytes without consuming them, waiting at most
// wait for them to arrive. A timeout is reported as os.ErrDeadlineExceeded
// together with whatever did arrive.
func (c *Conn) Peek(n int, wait time.Duration) ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return nil, err
	}
	defer c.conn.SetReadDeadline(time.Time{})
	return c.reader.Peek(n)
}

// Hijack hands over the underlying connection together with the reader that
// holds any bytes already buffered from it. The caller then owns both.
func (c *Conn) Hijack() (net.Conn, *bufio.Reader) {
	return c.conn, c.reader
}
