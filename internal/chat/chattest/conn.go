// Package chattest provides an in-memory chat.Conn for tests.
package chattest

import (
	"context"
	"io"
	"sync"

	"github.com/omochice/minechat/internal/chat"
)

// Conn is a scripted chat.Conn. Lines queued with Feed are returned by
// ReadLine in order; once the script is exhausted and EndOfStream was called,
// ReadLine reports io.EOF.
type Conn struct {
	lines      chan string
	eof        chan struct{}
	eofOnce    sync.Once
	mu         sync.Mutex
	written    [][]byte
	writeErr   error
	readErr    error
	closeCalls int
	remoteAddr string
}

// NewConn creates a Conn that already holds lines.
func NewConn(lines ...string) *Conn {
	c := &Conn{
		lines:      make(chan string, 64),
		eof:        make(chan struct{}),
		remoteAddr: "chattest:0",
	}
	c.Feed(lines...)
	return c
}

// Feed queues lines for ReadLine.
func (c *Conn) Feed(lines ...string) {
	for _, line := range lines {
		c.lines <- line
	}
}

// EndOfStream makes ReadLine return io.EOF once the queued lines are consumed.
func (c *Conn) EndOfStream() {
	c.eofOnce.Do(func() { close(c.eof) })
}

// FailReads makes every subsequent ReadLine fail with err.
func (c *Conn) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// FailWrites makes every subsequent Write fail with err.
func (c *Conn) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	c.mu.Lock()
	readErr := c.readErr
	c.mu.Unlock()
	if readErr != nil {
		return "", readErr
	}

	select {
	case line := <-c.lines:
		return line, nil
	default:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-c.lines:
		return line, nil
	case <-c.eof:
		select {
		case line := <-c.lines:
			return line, nil
		default:
			return "", io.EOF
		}
	}
}

func (c *Conn) Write(_ context.Context, frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	copied := make([]byte, len(frame))
	copy(copied, frame)
	c.written = append(c.written, copied)
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	return nil
}

func (c *Conn) Status() chat.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeCalls > 0 {
		return chat.StatusClosed
	}
	return chat.StatusOpen
}

func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// Written returns every frame passed to Write.
func (c *Conn) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

// WrittenString concatenates every written frame.
func (c *Conn) WrittenString() string {
	var out []byte
	for _, frame := range c.Written() {
		out = append(out, frame...)
	}
	return string(out)
}

// CloseCalls reports how many times Close was called.
func (c *Conn) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

// Compile-time check that Conn implements chat.Conn
var _ chat.Conn = (*Conn)(nil)
