// Package channel implements the per-socket I/O state machine: accept,
// recv, send and the connect handshake, translated into internal RWEvents
// that the event loop consumes.
package channel

import (
	"net"

	"github.com/jarlopez/petty/nativeudt"
)

// DefaultBufCapacity is the size of the buffer allocated for each recv
// call.
const DefaultBufCapacity = 10000

// Kind distinguishes the two channel roles. It is a closed, small variant
// set dispatched on directly rather than via an interface hierarchy.
type Kind int

const (
	// KindAcceptor is a bound, listening channel that produces peer
	// channels via Accept.
	KindAcceptor Kind = iota
	// KindConnector is a client-side or accepted peer channel that carries
	// bytes.
	KindConnector
)

// String renders the kind for log lines.
func (k Kind) String() string {
	if k == KindAcceptor {
		return "acceptor"
	}
	return "connector"
}

// State is a Connector's lifecycle state. Unused for Acceptors, which are
// logically always listening.
type State int

const (
	// StateIdle is a Connector's initial state, before connect is
	// initiated.
	StateIdle State = iota
	// StateConnecting is set once the caller initiates connect and the
	// handshake has not yet completed.
	StateConnecting
	// StateConnected is set once the underlying socket reports a completed
	// handshake.
	StateConnected
)

// String renders the state for log lines.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Channel is the per-socket object: a native socket handle, a role, and a
// connection state. A Channel is created once per logical endpoint and
// owned exclusively by the selector Key that wraps it.
type Channel struct {
	io    *nativeudt.Socket
	kind  Kind
	state State
}

// NewAcceptor wraps sock as a listening Acceptor channel.
func NewAcceptor(sock *nativeudt.Socket) *Channel {
	return &Channel{io: sock, kind: KindAcceptor}
}

// NewConnector wraps sock as a Connector channel in the given initial
// state (StateConnecting for a socket whose connect is in flight,
// StateConnected for one accepted from a listener).
func NewConnector(sock *nativeudt.Socket, state State) *Channel {
	return &Channel{io: sock, kind: KindConnector, state: state}
}

// Kind returns the channel's role.
func (c *Channel) Kind() Kind { return c.kind }

// State returns the Connector's lifecycle state (meaningless for an
// Acceptor).
func (c *Channel) State() State { return c.state }

// Handle returns the native socket handle, used as the selector/registry
// key.
func (c *Channel) Handle() int32 { return c.io.Handle() }

// RemoteAddr returns the peer address, once known.
func (c *Channel) RemoteAddr() net.Addr { return c.io.RemoteAddr() }

// BytesSent returns the cumulative bytes handed to the native socket.
func (c *Channel) BytesSent() uint64 { return c.io.BytesSent() }

// IsOpened reports whether the underlying socket has been opened.
func (c *Channel) IsOpened() bool { return c.io.Status() != nativeudt.StatusInit }

// IsListening reports whether the channel is a listening Acceptor.
func (c *Channel) IsListening() bool { return c.io.Status().IsListening() }

// IsBroken reports whether the underlying socket's handshake or connection
// failed.
func (c *Channel) IsBroken() bool { return c.io.Status().IsBroken() }

// IsClosing reports whether the underlying socket has begun a graceful
// shutdown.
func (c *Channel) IsClosing() bool { return c.io.Status().IsClosing() }

// IsClosed reports whether the underlying socket has been closed.
func (c *Channel) IsClosed() bool { return c.io.Status().IsClosed() }

// IsConnecting reports whether a handshake is in flight.
func (c *Channel) IsConnecting() bool { return c.io.Status().IsConnecting() }

// IsConnected reports whether the handshake has completed.
func (c *Channel) IsConnected() bool { return c.io.Status().IsConnected() }

// Close closes the underlying native socket.
func (c *Channel) Close() error { return c.io.Close() }
