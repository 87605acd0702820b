// Package chat provides the core chat domain types shared by all transports:
// line connections, dialers, the error taxonomy and the broadcast hub.
package chat

//go:generate mockgen -source=conn.go -destination=mocks/mock_conn.go -package=mocks

import (
	"context"
	"net"
	"strconv"
)

// Status is the lifecycle state of a connection.
type Status int

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusClosed
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "CONNECTING"
	case StatusOpen:
		return "OPEN"
	case StatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Conn abstracts a line oriented connection for both TCP and WebSocket.
// This interface isolates transport details from the handshake logic.
type Conn interface {
	// ReadLine reads a single protocol line without its terminator.
	// Returns io.EOF when the peer closes the connection.
	ReadLine(ctx context.Context) (string, error)

	// Write sends one already framed payload and flushes it.
	Write(ctx context.Context, frame []byte) error

	// Close closes the connection. Safe to call more than once.
	Close() error

	// Status reports the lifecycle state.
	Status() Status

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// Dialer opens connections to a chat server.
type Dialer interface {
	// Dial returns an open connection, or an error wrapping
	// ErrConnectionRefused when nothing listens on the address.
	Dial(ctx context.Context, host string, port int) (Conn, error)
}

// Address joins host and port for logging.
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
