// Package selector owns the native poller, the socket-handle registry, and
// the role-aware readiness projection that decides which registered socket
// is actually ready to be processed on a given cycle.
package selector

import (
	"github.com/jarlopez/petty/channel"
	"github.com/jarlopez/petty/ops"
)

// Key ties a registered socket handle to its Channel and its current
// interest/readiness bitsets. Identity and hash (as a registry map key) are
// the native socket handle, exposed via Handle.
type Key struct {
	channel   *channel.Channel
	readiness ops.Ops
	interest  ops.Ops
}

// NewKey builds a Key for channel, seeding interest from its Kind: an
// Acceptor starts interested in Accept, a Connector in Connect.
func NewKey(ch *channel.Channel) *Key {
	var interest ops.Ops
	switch ch.Kind() {
	case channel.KindAcceptor:
		interest = ops.WithAccept()
	default:
		interest = ops.WithConnect()
	}
	return &Key{channel: ch, readiness: ops.Empty(), interest: interest}
}

// Handle returns the native socket handle backing this key.
func (k *Key) Handle() int32 { return k.channel.Handle() }

// Channel returns the channel owned by this key.
func (k *Key) Channel() *channel.Channel { return k.channel }

// ReadyOps returns the readiness bitset computed by the most recent
// apply_read/apply_write call.
func (k *Key) ReadyOps() ops.Ops { return k.readiness }

// Interest returns the currently registered interest bitset.
func (k *Key) Interest() ops.Ops { return k.interest }

// setInterest replaces the interest bitset, used by update_registration.
// Readiness bits no longer covered by the new interest are dropped at the
// same time, preserving readiness ⊆ interest ∪ {ERROR}.
func (k *Key) setInterest(i ops.Ops) {
	k.interest = i
	k.readiness = k.readiness & i.Apply(ops.Error)
}

// resetReadiness clears any readiness bits computed by a prior cycle. Called
// once per key at the top of every Select, so a bit left set by, say, a
// finished CONNECT handshake does not leak into a later cycle's READ-only
// notification and misdirect processSelected's dispatch.
func (k *Key) resetReadiness() { k.readiness = ops.Empty() }

// applyRead projects a raw readable notification through role-aware
// policy. It returns true (and sets the corresponding readiness bit) only
// when the channel's current interest actually wants this notification;
// see the component design's state-projection table.
func (k *Key) applyRead() bool {
	switch k.channel.Kind() {
	case channel.KindAcceptor:
		if !k.interest.HasAccept() {
			return false
		}
		k.readiness = k.readiness.Apply(ops.Accept)
	default:
		if !k.interest.HasRead() {
			return false
		}
		k.readiness = k.readiness.Apply(ops.Read)
	}
	return true
}

// applyWrite projects a raw writable notification through role-aware
// policy. An Acceptor never writes. A Connector's writable readiness means
// either "the connect handshake completed" (not yet Connected) or "ready to
// send more data" (already Connected), and those two cases are gated by
// distinct interest bits.
func (k *Key) applyWrite() bool {
	if k.channel.Kind() == channel.KindAcceptor {
		return false
	}
	if k.channel.State() == channel.StateConnected {
		if !k.interest.HasWrite() {
			return false
		}
		k.readiness = k.readiness.Apply(ops.Write)
		return true
	}
	if !k.interest.HasConnect() {
		return false
	}
	k.readiness = k.readiness.Apply(ops.Connect)
	return true
}

// translateInterest maps an Ops interest bitset to native poll flags, per
// the component design: ACCEPT|READ -> readable interest, CONNECT|WRITE ->
// writable interest, ERROR -> error interest.
func translateInterest(interest ops.Ops) (readable, writable, errorFlag bool) {
	readable = interest.HasAccept() || interest.HasRead()
	writable = interest.HasConnect() || interest.HasWrite()
	errorFlag = interest.HasError()
	return
}
