package channel

import (
	"net"

	"github.com/jarlopez/petty/ops"
)

// RWEventKind tags the variant carried by an RWEvent.
type RWEventKind int

const (
	// EventNewPeer is emitted by an Acceptor's Accept, carrying the new
	// peer Channel and its remote address.
	EventNewPeer RWEventKind = iota
	// EventData is emitted by a Connector's Read, carrying a non-empty
	// byte run exactly as returned by the native recv.
	EventData
	// EventRegistrationUpdate asks the loop to re-register a handle's
	// interest/readiness with the selector.
	EventRegistrationUpdate
	// EventConnectedPeer is emitted once a Connector's handshake
	// completes.
	EventConnectedPeer
	// EventConnectFailed is emitted when a Connector's in-flight handshake
	// resolves to a failure, so the loop can unregister and close the
	// channel and surface a connection error to the caller.
	EventConnectFailed
	// EventError is emitted when a channel operation fails in a way that
	// should be surfaced to the caller rather than silently swallowed.
	EventError
)

// RWEvent is the internal event type produced by Channel operations and
// accumulated in the event loop's reusable scratch buffer. It is
// translated into outbound Triggers (and selector re-registrations) by the
// loop; see the root package's translate.go.
type RWEvent struct {
	Kind RWEventKind

	// NewPeer is set for EventNewPeer. Addr is set for EventNewPeer,
	// EventConnectedPeer and EventConnectFailed.
	NewPeer *Channel
	Addr    net.Addr

	// Data is set for EventData.
	Data []byte

	// Handle is set for every kind except EventNewPeer; UpdateOps is set
	// for EventRegistrationUpdate.
	Handle    int32
	UpdateOps ops.Ops

	// Err is set for EventError and EventConnectFailed.
	Err error
}
