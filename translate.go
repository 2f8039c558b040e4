package petty

import (
	"errors"

	"github.com/jarlopez/petty/channel"
	"github.com/jarlopez/petty/logging"
	"github.com/jarlopez/petty/nativeudt"
	"github.com/jarlopez/petty/ops"
	"github.com/jarlopez/petty/selector"
)

// processSelected walks every key the selector marked ready this cycle,
// dispatches it to the matching Channel operation per its ready_ops, and
// translates the resulting internal RWEvents into selector re-registrations
// and outbound Triggers.
func (l *Loop) processSelected() {
	l.sel.OnSelected(func(key *selector.Key) {
		l.scratch = l.scratch[:0]
		ready := key.ReadyOps()

		switch {
		case ready.HasConnect():
			// Clearing CONNECT and adding READ+ERROR mirrors the
			// post-accept registration rule: once a Connector's handshake
			// resolves, it should be watched for incoming data without a
			// separate Work submission from the caller.
			updated := ready.Remove(ops.Connect).Apply(ops.Read).Apply(ops.Error)
			_ = l.sel.UpdateRegistration(key.Handle(), updated)
			l.appendFinishConnect(key.Channel())

		case ready.HasRead() || ready.HasAccept():
			l.appendRead(key.Channel())

		case ready.HasWrite():
			_ = key.Channel().Flush()
		}

		l.drainScratch()
	})
}

func (l *Loop) appendFinishConnect(ch *channel.Channel) {
	ev, err := ch.FinishConnect()
	if err != nil {
		l.log.Error("petty: finish_connect failed", logging.Err(err))
		return
	}
	if ev.Kind == channel.EventConnectedPeer || ev.Kind == channel.EventConnectFailed {
		l.scratch = append(l.scratch, ev)
	}
}

func (l *Loop) appendRead(ch *channel.Channel) {
	if ch.Kind() == channel.KindAcceptor {
		events, err := ch.Accept()
		if err != nil {
			l.log.Error("petty: accept failed", logging.Err(err))
			return
		}
		l.scratch = append(l.scratch, events...)
		return
	}

	ev, err := ch.Read()
	if err != nil {
		if errors.Is(err, channel.ErrWouldBlock) || errors.Is(err, nativeudt.ErrWouldBlock) {
			return
		}
		l.log.Error("petty: read failed", logging.Err(err))
		return
	}
	l.scratch = append(l.scratch, ev)
}

// drainScratch translates each accumulated RWEvent into the side effects
// and outbound Triggers described by the internal RWEvent -> Trigger
// mapping.
func (l *Loop) drainScratch() {
	for _, ev := range l.scratch {
		switch ev.Kind {
		case channel.EventNewPeer:
			key := selector.NewKey(ev.NewPeer)
			interest := ops.WithRead().Apply(ops.Error)
			if err := l.sel.Register(key, interest); err != nil {
				l.log.Error("petty: register accepted peer failed", logging.Err(err))
				continue
			}
			if l.metrics != nil {
				l.metrics.ConnectionsAccepted.Inc()
			}
			l.outbound <- Trigger{Kind: TriggerConnected, Handle: key.Handle(), Addr: ev.Addr}

		case channel.EventData:
			if l.metrics != nil {
				l.metrics.BytesReceived.Add(float64(len(ev.Data)))
			}
			l.outbound <- Trigger{Kind: TriggerData, Handle: ev.Handle, Data: ev.Data}

		case channel.EventRegistrationUpdate:
			_ = l.sel.UpdateRegistration(ev.Handle, ev.UpdateOps)

		case channel.EventConnectedPeer:
			l.outbound <- Trigger{Kind: TriggerConnected, Handle: ev.Handle, Addr: ev.Addr}

		case channel.EventConnectFailed:
			l.log.Debug("petty: connect handshake failed", logging.Err(ev.Err))
			if l.metrics != nil {
				l.metrics.ConnectFailures.Inc()
			}
			l.closeResource(ev.Handle)
			l.outbound <- Trigger{Kind: TriggerConnectionError, Addr: ev.Addr, Err: ev.Err}

		case channel.EventError:
			l.log.Debug("petty: channel error event", logging.Err(ev.Err))
			if l.metrics != nil {
				l.metrics.ChannelErrors.Inc()
			}
			// A recv failure or a peer close leaves the socket permanently
			// readable; unregistering here keeps a dead peer from being
			// re-selected every cycle.
			l.closeResource(ev.Handle)
			l.outbound <- Trigger{Kind: TriggerError, Handle: ev.Handle, Err: ev.Err}
		}
	}
	l.scratch = l.scratch[:0]
}

// closeResource unregisters handle from the selector and closes its channel,
// if it is still registered.
func (l *Loop) closeResource(handle int32) {
	ch, ok := l.sel.ChannelFor(handle)
	if !ok {
		return
	}
	if err := l.sel.Unregister(handle); err != nil {
		l.log.Warn("petty: unregister failed", logging.Int("handle", int(handle)), logging.Err(err))
	}
	if err := ch.Close(); err != nil {
		l.log.Warn("petty: close failed", logging.Int("handle", int(handle)), logging.Err(err))
	}
}
