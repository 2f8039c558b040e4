package channel

import (
	"errors"

	"github.com/jarlopez/petty/nativeudt"
)

// ErrWrongKind is returned when an operation is invoked against a Channel of
// the wrong Kind (e.g. Accept on a Connector).
var ErrWrongKind = errors.New("channel: operation not valid for this channel kind")

// Accept drains pending peer connections from an Acceptor, returning one
// EventNewPeer per accepted peer. It stops at the first EAGAIN-equivalent
// native error (no more pending peers) and does not treat that as a failure.
func (c *Channel) Accept() ([]RWEvent, error) {
	if c.kind != KindAcceptor {
		return nil, ErrWrongKind
	}

	var events []RWEvent
	for {
		peerSock, err := c.io.Accept()
		if err != nil {
			if errors.Is(err, nativeudt.ErrWouldBlock) {
				return events, nil
			}
			return events, err
		}
		peer := NewConnector(peerSock, StateConnected)
		events = append(events, RWEvent{
			Kind:    EventNewPeer,
			NewPeer: peer,
			Addr:    peer.RemoteAddr(),
		})
	}
}

// Read performs one recv on a Connector, returning an EventData event
// carrying exactly the bytes read. A zero-length, error-free read indicates
// the peer closed its write side (EOF) and is surfaced as EventError so the
// loop can unregister and close the channel.
func (c *Channel) Read() (RWEvent, error) {
	if c.kind != KindConnector {
		return RWEvent{}, ErrWrongKind
	}

	buf := make([]byte, DefaultBufCapacity)
	n, err := c.io.Recv(buf)
	switch {
	case errors.Is(err, nativeudt.ErrWouldBlock):
		return RWEvent{}, ErrWouldBlock
	case err != nil:
		return RWEvent{Kind: EventError, Handle: c.Handle(), Err: err}, nil
	case n == 0:
		return RWEvent{Kind: EventError, Handle: c.Handle(), Err: ErrPeerClosed}, nil
	default:
		return RWEvent{Kind: EventData, Handle: c.Handle(), Data: buf[:n]}, nil
	}
}

// ErrWouldBlock is returned by Read when there is currently no data to
// read; callers should treat this as "no event produced" rather than a
// failure.
var ErrWouldBlock = errors.New("channel: read would block")

// ErrPeerClosed indicates a zero-length, error-free recv: the peer has
// shut down its write side.
var ErrPeerClosed = errors.New("channel: peer closed connection")

// Write performs one send of data on a Connector, returning the number of
// bytes actually accepted by the native socket. Callers are responsible for
// retaining any unsent remainder and retrying on the next Write-ready
// readiness cycle.
func (c *Channel) Write(data []byte) (int, error) {
	if c.kind != KindConnector {
		return 0, ErrWrongKind
	}
	return c.io.Send(data)
}

// Flush is a no-op for the raw stream-socket backing used here: Send already
// hands bytes directly to the kernel socket buffer, so there is no
// additional native buffer to flush. Kept as a method so callers written
// against the native-UDT contract (which does distinguish send from flush)
// do not need a special case.
func (c *Channel) Flush() error { return nil }

// FinishConnect queries a Connector's in-flight handshake result, emitting
// EventConnectedPeer on success or EventConnectFailed on failure. It
// transitions the channel's State as a side effect.
func (c *Channel) FinishConnect() (RWEvent, error) {
	if c.kind != KindConnector {
		return RWEvent{}, ErrWrongKind
	}
	connected, err := c.io.FinishConnect()
	if err != nil {
		return RWEvent{
			Kind:   EventConnectFailed,
			Handle: c.Handle(),
			Addr:   c.RemoteAddr(),
			Err:    err,
		}, nil
	}
	if connected {
		c.state = StateConnected
		return RWEvent{
			Kind:   EventConnectedPeer,
			Handle: c.Handle(),
			Addr:   c.RemoteAddr(),
		}, nil
	}
	return RWEvent{}, nil
}
