package petty

import "net"

// TriggerKind tags the variant carried by a Trigger.
type TriggerKind int

const (
	// TriggerConnected fires when a Connector finishes its connect
	// handshake, or when an Acceptor produces a new accepted peer.
	TriggerConnected TriggerKind = iota
	// TriggerConnectionError fires when a connect attempt fails, either
	// synchronously or when its handshake resolves to a failure.
	TriggerConnectionError
	// TriggerDisconnected is reserved for future graceful-close
	// signaling; nothing in this core currently emits it.
	TriggerDisconnected
	// TriggerData fires when a Connector completes a non-empty recv.
	TriggerData
	// TriggerWrite is reserved; nothing in this core currently emits it.
	TriggerWrite
	// TriggerError surfaces channel-level I/O errors that are not fatal
	// to the loop itself (a failed recv, a peer close, a failed send,
	// listen or registration).
	TriggerError
)

// String renders the kind for log lines.
func (k TriggerKind) String() string {
	switch k {
	case TriggerConnected:
		return "Connected"
	case TriggerConnectionError:
		return "ConnectionError"
	case TriggerDisconnected:
		return "Disconnected"
	case TriggerData:
		return "Data"
	case TriggerWrite:
		return "Write"
	case TriggerError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Trigger is the outbound event type consumed by user code off the loop's
// event channel.
type Trigger struct {
	Kind TriggerKind

	// Handle identifies the socket this trigger concerns, for
	// TriggerConnected, TriggerData and TriggerError.
	Handle int32

	// Addr carries the peer address for TriggerConnected and
	// TriggerConnectionError.
	Addr net.Addr

	// Data carries the opaque byte run for TriggerData, exactly as
	// returned by the native recv.
	Data []byte

	// Err carries the failure for TriggerConnectionError and
	// TriggerError.
	Err error
}
