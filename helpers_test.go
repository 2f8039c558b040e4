package petty_test

import (
	"net"
	"testing"
	"time"

	"github.com/jarlopez/petty/nativeudt"
	"github.com/stretchr/testify/require"
)

// listenOrFail binds a native listening socket for tests that drive the
// selector directly rather than through a Loop.
func listenOrFail(t *testing.T, addr string) *nativeudt.Socket {
	t.Helper()
	sock, err := nativeudt.Listen(addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })
	return sock
}

// newLoopbackConnectorPair returns a connected client-side native socket
// (guaranteed StatusConnected by the time it returns) paired with the
// accepted server-side net.Conn, for selector-level tests that need a real
// writable socket without driving a full Loop.
func newLoopbackConnectorPair(t *testing.T) (*nativeudt.Socket, net.Conn, error) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	sock, connected, err := nativeudt.Connect(ln.Addr().String())
	if err != nil {
		return nil, nil, err
	}
	peer, err := ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close(); _ = sock.Close() })

	if !connected {
		require.Eventually(t, func() bool {
			ok, finishErr := sock.FinishConnect()
			require.NoError(t, finishErr)
			return ok
		}, time.Second, 5*time.Millisecond, "loopback connect did not finish")
	}
	return sock, peer, nil
}
