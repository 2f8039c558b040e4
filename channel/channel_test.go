package channel_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/jarlopez/petty/channel"
	"github.com/jarlopez/petty/nativeudt"
)

func freeLoopbackAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// newConnectedPair returns a Connector channel in StateConnected together
// with the accepted server-side net.Conn it is talking to.
func newConnectedPair(t *testing.T) (*channel.Channel, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	sock, connected, err := nativeudt.Connect(ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })

	peer, err := ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })

	if !connected {
		waitWritable(t, sock)
		ok, err := sock.FinishConnect()
		require.NoError(t, err)
		require.True(t, ok)
	}
	return channel.NewConnector(sock, channel.StateConnected), peer
}

// waitWritable blocks until the pending connect on sock has resolved, so a
// following FinishConnect reads a meaningful SO_ERROR.
func waitWritable(t *testing.T, sock *nativeudt.Socket) {
	t.Helper()
	pfd := []unix.PollFd{{Fd: sock.Handle(), Events: unix.POLLOUT}}
	n, err := unix.Poll(pfd, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, n, "socket did not become writable within the poll timeout")
}

func TestAcceptProducesNewPeerEvent(t *testing.T) {
	addr := freeLoopbackAddr(t)
	sock, err := nativeudt.Listen(addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })
	acceptor := channel.NewAcceptor(sock)

	dialer, err := net.Dial("tcp4", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dialer.Close() })

	var events []channel.RWEvent
	require.Eventually(t, func() bool {
		evs, err := acceptor.Accept()
		require.NoError(t, err)
		events = append(events, evs...)
		return len(events) > 0
	}, time.Second, 5*time.Millisecond)

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, channel.EventNewPeer, ev.Kind)
	require.NotNil(t, ev.NewPeer)
	assert.Equal(t, channel.KindConnector, ev.NewPeer.Kind())
	assert.Equal(t, channel.StateConnected, ev.NewPeer.State())
	assert.NotNil(t, ev.Addr)
	t.Cleanup(func() { _ = ev.NewPeer.Close() })
}

func TestAcceptWithNoPendingPeersReturnsNoEvents(t *testing.T) {
	addr := freeLoopbackAddr(t)
	sock, err := nativeudt.Listen(addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })

	events, err := channel.NewAcceptor(sock).Accept()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOperationsRejectWrongKind(t *testing.T) {
	addr := freeLoopbackAddr(t)
	sock, err := nativeudt.Listen(addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })
	acceptor := channel.NewAcceptor(sock)

	_, err = acceptor.Read()
	assert.ErrorIs(t, err, channel.ErrWrongKind)
	_, err = acceptor.Write([]byte("x"))
	assert.ErrorIs(t, err, channel.ErrWrongKind)
	_, err = acceptor.FinishConnect()
	assert.ErrorIs(t, err, channel.ErrWrongKind)

	connector, _ := newConnectedPair(t)
	_, err = connector.Accept()
	assert.ErrorIs(t, err, channel.ErrWrongKind)
}

func TestReadReturnsBytesExactlyAsSent(t *testing.T) {
	connector, peer := newConnectedPair(t)

	payload := []byte{0x6D, 0x73, 0x67, 0x20, 0x31}
	_, err := peer.Write(payload)
	require.NoError(t, err)

	var ev channel.RWEvent
	require.Eventually(t, func() bool {
		got, err := connector.Read()
		if err != nil {
			require.ErrorIs(t, err, channel.ErrWouldBlock)
			return false
		}
		ev = got
		return true
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, channel.EventData, ev.Kind)
	assert.Equal(t, payload, ev.Data)
	assert.Equal(t, connector.Handle(), ev.Handle)
}

func TestReadWithNoDataWouldBlock(t *testing.T) {
	connector, _ := newConnectedPair(t)
	_, err := connector.Read()
	assert.ErrorIs(t, err, channel.ErrWouldBlock)
}

func TestReadSurfacesPeerCloseAsError(t *testing.T) {
	connector, peer := newConnectedPair(t)
	require.NoError(t, peer.Close())

	var ev channel.RWEvent
	require.Eventually(t, func() bool {
		got, err := connector.Read()
		if err != nil {
			require.ErrorIs(t, err, channel.ErrWouldBlock)
			return false
		}
		ev = got
		return true
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, channel.EventError, ev.Kind)
	assert.ErrorIs(t, ev.Err, channel.ErrPeerClosed)
	assert.Equal(t, connector.Handle(), ev.Handle)
}

func TestWriteSendsBytesAndCountsThem(t *testing.T) {
	connector, peer := newConnectedPair(t)

	payload := []byte("hello")
	n, err := connector.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, uint64(len(payload)), connector.BytesSent())

	buf := make([]byte, 16)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	got, err := peer.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:got])
}

func TestFlushIsNoop(t *testing.T) {
	connector, _ := newConnectedPair(t)
	assert.NoError(t, connector.Flush())
}

func TestFinishConnectSuccessEmitsConnectedPeer(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	sock, connected, err := nativeudt.Connect(ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })

	peer, err := ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })

	if connected {
		t.Skip("loopback connect completed synchronously; handshake path not reachable")
	}

	connector := channel.NewConnector(sock, channel.StateConnecting)
	waitWritable(t, sock)

	ev, err := connector.FinishConnect()
	require.NoError(t, err)
	assert.Equal(t, channel.EventConnectedPeer, ev.Kind)
	assert.Equal(t, connector.Handle(), ev.Handle)
	assert.NotNil(t, ev.Addr)
	assert.Equal(t, channel.StateConnected, connector.State())
	assert.True(t, connector.IsConnected())
}

func TestFinishConnectFailureEmitsConnectFailed(t *testing.T) {
	addr := freeLoopbackAddr(t) // nothing listening here anymore

	sock, connected, err := nativeudt.Connect(addr)
	if err != nil {
		t.Skip("connect failed synchronously; handshake-failure path not reachable")
	}
	require.False(t, connected)
	t.Cleanup(func() { _ = sock.Close() })

	connector := channel.NewConnector(sock, channel.StateConnecting)
	waitWritable(t, sock)

	ev, ferr := connector.FinishConnect()
	require.NoError(t, ferr)
	assert.Equal(t, channel.EventConnectFailed, ev.Kind)
	assert.Error(t, ev.Err)
	assert.NotNil(t, ev.Addr)
	assert.True(t, connector.IsBroken())
}
