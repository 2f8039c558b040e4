// Package ops defines the interest/readiness bitset shared by the selector
// and channel packages.
package ops

import "strconv"

// Ops is a 5-bit set of I/O operation flags. It is used both as interest
// (what the caller wants to be notified about) and as readiness (what the
// native poller has reported). Flags are independent; any subset is legal.
type Ops uint8

const (
	// Accept marks a listening socket ready to produce a new peer.
	Accept Ops = 1 << iota
	// Connect marks a connecting socket ready to finish its handshake.
	Connect
	// Read marks a socket ready for a non-blocking receive.
	Read
	// Write marks a socket ready for a non-blocking send.
	Write
	// Error marks a socket in an error state.
	Error
)

// Empty returns the zero-value Ops (no flags set).
func Empty() Ops { return 0 }

// Apply returns o with flag set.
func (o Ops) Apply(flag Ops) Ops { return o | flag }

// Remove returns o with flag cleared.
func (o Ops) Remove(flag Ops) Ops { return o &^ flag }

// Has reports whether every bit in flag is set in o.
func (o Ops) Has(flag Ops) bool { return o&flag == flag }

// HasAccept reports whether the Accept flag is set.
func (o Ops) HasAccept() bool { return o.Has(Accept) }

// HasConnect reports whether the Connect flag is set.
func (o Ops) HasConnect() bool { return o.Has(Connect) }

// HasRead reports whether the Read flag is set.
func (o Ops) HasRead() bool { return o.Has(Read) }

// HasWrite reports whether the Write flag is set.
func (o Ops) HasWrite() bool { return o.Has(Write) }

// HasError reports whether the Error flag is set.
func (o Ops) HasError() bool { return o.Has(Error) }

// WithAccept returns an Ops with only the Accept flag set.
func WithAccept() Ops { return Accept }

// WithConnect returns an Ops with only the Connect flag set.
func WithConnect() Ops { return Connect }

// WithRead returns an Ops with only the Read flag set.
func WithRead() Ops { return Read }

// WithWrite returns an Ops with only the Write flag set.
func WithWrite() Ops { return Write }

// WithError returns an Ops with only the Error flag set.
func WithError() Ops { return Error }

// String renders o as a binary literal, for log lines.
func (o Ops) String() string {
	return "0b" + strconv.FormatUint(uint64(o), 2)
}
