package client

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/omochice/minechat/internal/chat"
)

// DefaultReconnectDelay is the pause after a refused connection attempt.
const DefaultReconnectDelay = 5 * time.Second

// ReconnectState is the phase of the listener connection loop.
type ReconnectState int32

const (
	StateIdle ReconnectState = iota
	StateConnecting
	StateStreaming
)

// String returns the string representation of ReconnectState
func (s ReconnectState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateStreaming:
		return "STREAMING"
	default:
		return "UNKNOWN"
	}
}

// StreamFunc consumes an open connection until it fails or ctx is done.
type StreamFunc func(ctx context.Context, conn chat.Conn) error

// Reconnector keeps a connection to the server alive for the lifetime of the
// process. Failed attempts are retried after a fixed delay; a connection that
// was established and then lost is retried at once. There is no backoff.
type Reconnector struct {
	dialer chat.Dialer
	host   string
	port   int
	delay  time.Duration
	wait   func(ctx context.Context, d time.Duration) error
	log    *zap.Logger
	state  atomic.Int32
}

// ReconnectorOption customizes a Reconnector.
type ReconnectorOption func(*Reconnector)

// WithDelay sets the pause between failed connection attempts.
func WithDelay(d time.Duration) ReconnectorOption {
	return func(r *Reconnector) {
		r.delay = d
	}
}

// WithWait replaces the function used to pause between attempts.
func WithWait(wait func(ctx context.Context, d time.Duration) error) ReconnectorOption {
	return func(r *Reconnector) {
		r.wait = wait
	}
}

// NewReconnector creates a Reconnector for host:port.
func NewReconnector(dialer chat.Dialer, host string, port int, log *zap.Logger, opts ...ReconnectorOption) *Reconnector {
	r := &Reconnector{
		dialer: dialer,
		host:   host,
		port:   port,
		delay:  DefaultReconnectDelay,
		wait:   sleep,
		log:    log.With(zap.String("address", chat.Address(host, port))),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the current phase of the loop.
func (r *Reconnector) State() ReconnectState {
	return ReconnectState(r.state.Load())
}

// Run connects and hands every connection to stream, forever. It returns once
// ctx is cancelled; every connection it opened is closed by then.
func (r *Reconnector) Run(ctx context.Context, stream StreamFunc) {
	defer r.setState(StateIdle)

	for {
		if ctx.Err() != nil {
			return
		}

		r.setState(StateConnecting)
		conn, err := r.dialer.Dial(ctx, r.host, r.port)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, chat.ErrConnectionRefused) {
				r.log.Warn("Server refused connection", zap.Duration("retry_in", r.delay))
			} else {
				r.log.Warn("Failed to connect to server", zap.Error(err), zap.Duration("retry_in", r.delay))
			}
			if r.wait(ctx, r.delay) != nil {
				return
			}
			continue
		}

		r.log.Info("Connection established")
		r.setState(StateStreaming)
		err = stream(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		if err == nil || errors.Is(err, io.EOF) {
			r.log.Info("Server closed the connection, reconnecting")
		} else {
			r.log.Warn("Connection lost, reconnecting", zap.Error(err))
		}
	}
}

func (r *Reconnector) setState(s ReconnectState) {
	r.state.Store(int32(s))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
