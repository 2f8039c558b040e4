package petty

import (
	"fmt"
	"net"

	"github.com/jarlopez/petty/channel"
	"github.com/jarlopez/petty/logging"
	"github.com/jarlopez/petty/nativeudt"
	"github.com/jarlopez/petty/ops"
	"github.com/jarlopez/petty/selector"
)

// Work is a one-shot closure submitted to the loop's inbound task queue. It
// runs on the loop goroutine with exclusive access to the selector and a
// send-only view of the outbound event channel, and may register new keys,
// perform synchronous I/O such as initiating a connect, update a live key's
// interest, or emit Triggers directly (e.g. a synchronous connect failure).
// Listen, Connect, Write and UpdateInterest cover the common uses; custom
// closures compose the same selector operations.
type Work func(sel *selector.Selector, out chan<- Trigger)

// Listen is a Work constructor that binds and registers a new Acceptor on
// addr with Accept interest.
func Listen(addr string) Work {
	return func(sel *selector.Selector, out chan<- Trigger) {
		sock, err := nativeudt.Listen(addr)
		if err != nil {
			out <- Trigger{Kind: TriggerError, Err: fmt.Errorf("petty: listen %s: %w", addr, err)}
			return
		}
		key := selector.NewKey(channel.NewAcceptor(sock))
		if err := sel.Register(key, key.Interest()); err != nil {
			out <- Trigger{Kind: TriggerError, Handle: key.Handle(), Err: err}
			return
		}
	}
}

// Connect is a Work constructor implementing the initial-connect fast
// path: if the native connect completes synchronously, it emits
// TriggerConnected directly without registering for CONNECT readiness;
// otherwise it registers the new Connector with {Connect, Error} interest
// and lets the normal readiness path finish the handshake.
func Connect(addr string) Work {
	return connectWork(addr, nil)
}

// connectWork is Connect's implementation, with an optional hook invoked on
// synchronous connect failure so Loop.SubmitConnect can record a metric
// without duplicating the connect logic.
func connectWork(addr string, onFailure func()) Work {
	return func(sel *selector.Selector, out chan<- Trigger) {
		sock, connected, err := nativeudt.Connect(addr)
		if err != nil {
			if onFailure != nil {
				onFailure()
			}
			var remote net.Addr
			if tcpAddr, resolveErr := net.ResolveTCPAddr("tcp4", addr); resolveErr == nil {
				remote = tcpAddr
			}
			out <- Trigger{Kind: TriggerConnectionError, Addr: remote, Err: err}
			return
		}

		if connected {
			ch := channel.NewConnector(sock, channel.StateConnected)
			key := selector.NewKey(ch)
			if regErr := sel.Register(key, ops.WithRead().Apply(ops.Error)); regErr != nil {
				out <- Trigger{Kind: TriggerError, Handle: key.Handle(), Err: regErr}
				return
			}
			out <- Trigger{Kind: TriggerConnected, Handle: key.Handle(), Addr: ch.RemoteAddr()}
			return
		}

		ch := channel.NewConnector(sock, channel.StateConnecting)
		key := selector.NewKey(ch)
		interest := ops.WithConnect().Apply(ops.Error)
		if regErr := sel.Register(key, interest); regErr != nil {
			out <- Trigger{Kind: TriggerError, Handle: key.Handle(), Err: regErr}
		}
	}
}

// Write is a Work constructor that sends data on an already-connected
// handle. Any portion the native socket does not accept immediately is
// dropped by this simple constructor; callers needing guaranteed delivery
// of a remainder should resubmit on the next TriggerData/readiness cycle.
func Write(handle int32, data []byte) Work {
	return func(sel *selector.Selector, out chan<- Trigger) {
		ch, ok := sel.ChannelFor(handle)
		if !ok {
			logging.Global().Warn("petty: write to unregistered handle", logging.Int("handle", int(handle)))
			return
		}
		if _, err := ch.Write(data); err != nil {
			out <- Trigger{Kind: TriggerError, Handle: handle, Err: err}
		}
	}
}

// UpdateInterest is a Work constructor that replaces a registered handle's
// interest set, e.g. to add Write interest to a connected resource, or to
// drop Read interest without unregistering the socket. A no-op for an
// unregistered handle.
func UpdateInterest(handle int32, interest ops.Ops) Work {
	return func(sel *selector.Selector, out chan<- Trigger) {
		if err := sel.UpdateRegistration(handle, interest); err != nil {
			out <- Trigger{Kind: TriggerError, Handle: handle, Err: err}
		}
	}
}

// SubmitWrite is a convenience wrapper around Submit(Write(handle, data))
// that additionally records the BytesSent metric, which a bare Work
// closure has no loop handle to reach.
func (l *Loop) SubmitWrite(handle int32, data []byte) error {
	return l.Submit(func(sel *selector.Selector, out chan<- Trigger) {
		ch, ok := sel.ChannelFor(handle)
		if !ok {
			l.log.Warn("petty: write to unregistered handle", logging.Int("handle", int(handle)))
			return
		}
		n, err := ch.Write(data)
		if l.metrics != nil && n > 0 {
			l.metrics.BytesSent.Add(float64(n))
		}
		if err != nil {
			out <- Trigger{Kind: TriggerError, Handle: handle, Err: err}
		}
	})
}

// SubmitConnect is a convenience wrapper around Submit(Connect(addr)) that
// additionally records the ConnectFailures metric.
func (l *Loop) SubmitConnect(addr string) error {
	onFailure := func() {}
	if l.metrics != nil {
		onFailure = l.metrics.ConnectFailures.Inc
	}
	return l.Submit(connectWork(addr, onFailure))
}
