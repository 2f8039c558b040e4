//go:build linux

package nativeudt

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Sentinel errors for the native socket layer.
var (
	// ErrNotConnecting is returned by FinishConnect when the socket did not
	// have a handshake in flight.
	ErrNotConnecting = errors.New("nativeudt: socket is not connecting")
	// ErrClosed is returned by operations attempted on a closed socket.
	ErrClosed = errors.New("nativeudt: socket is closed")
	// ErrWouldBlock wraps EAGAIN/EWOULDBLOCK from a non-blocking accept,
	// recv or send: the operation has no work available right now rather
	// than having failed.
	ErrWouldBlock = errors.New("nativeudt: operation would block")
)

// isWouldBlock reports whether err is the non-blocking-I/O-has-no-work
// condition, as opposed to a genuine failure.
func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

var initOnce sync.Once

// Init performs process-wide initialization of the native UDT library. It
// is idempotent and safe to call from multiple goroutines; only the first
// call has an effect.
func Init() error {
	var err error
	initOnce.Do(func() {
		// The native UDT library would perform global setup here (e.g.
		// internal worker threads, socket tables). Raw stream sockets need
		// no equivalent step; this stub preserves the call site contract.
	})
	return err
}

// Socket wraps a single non-blocking stream socket, standing in for a
// native UDT socket handle. The native handle inside Socket is a small
// Copy-able identity value (the file descriptor); mutation of socket state
// always goes through the owning Socket value, never through the raw fd
// directly from outside this package.
type Socket struct {
	fd        int32
	status    atomic.Int32
	bytesSent atomic.Uint64
	remote    net.Addr
}

// Handle returns the native socket handle, used as a map key by the
// selector registry.
func (s *Socket) Handle() int32 { return s.fd }

// Status returns the socket's current status.
func (s *Socket) Status() Status { return Status(s.status.Load()) }

// BytesSent returns the cumulative number of bytes handed to the kernel via
// Send, for observability.
func (s *Socket) BytesSent() uint64 { return s.bytesSent.Load() }

// RemoteAddr returns the peer address, if known (set on accept, or once a
// connect completes).
func (s *Socket) RemoteAddr() net.Addr { return s.remote }

// Listen creates a listening socket bound to addr (host:port, IPv4).
func Listen(addr string) (*Socket, error) {
	sa, _, err := resolveSockaddr(addr)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("nativeudt: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("nativeudt: setsockopt reuseaddr: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("nativeudt: bind: %w", err)
	}
	if err := unix.Listen(fd, 128); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("nativeudt: listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("nativeudt: set nonblocking: %w", err)
	}

	s := &Socket{fd: int32(fd)}
	s.status.Store(int32(StatusOpened))
	return s, nil
}

// Connect creates a non-blocking socket and begins connecting to addr. The
// handshake may complete synchronously (returns connected=true) or may
// require the caller to wait for writable readiness and then call
// FinishConnect (returns connected=false, err=nil).
func Connect(addr string) (s *Socket, connected bool, err error) {
	sa, resolved, err := resolveSockaddr(addr)
	if err != nil {
		return nil, false, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, false, fmt.Errorf("nativeudt: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, false, fmt.Errorf("nativeudt: set nonblocking: %w", err)
	}

	s = &Socket{fd: int32(fd), remote: resolved}
	s.status.Store(int32(StatusConnecting))

	err = unix.Connect(fd, sa)
	switch {
	case err == nil:
		s.status.Store(int32(StatusConnected))
		return s, true, nil
	case errors.Is(err, unix.EINPROGRESS):
		return s, false, nil
	default:
		s.status.Store(int32(StatusBroken))
		_ = unix.Close(fd)
		return nil, false, fmt.Errorf("nativeudt: connect: %w", err)
	}
}

// FinishConnect queries the socket's pending-connect result via SO_ERROR.
// It returns connected=true if the handshake succeeded, in which case the
// status transitions to StatusConnected; otherwise it returns the
// connection error and the status transitions to StatusBroken.
func (s *Socket) FinishConnect() (connected bool, err error) {
	if s.Status() != StatusConnecting {
		return false, ErrNotConnecting
	}

	errno, gerr := unix.GetsockoptInt(int(s.fd), unix.SOL_SOCKET, unix.SO_ERROR)
	if gerr != nil {
		s.status.Store(int32(StatusBroken))
		return false, fmt.Errorf("nativeudt: getsockopt so_error: %w", gerr)
	}
	if errno != 0 {
		s.status.Store(int32(StatusBroken))
		return false, fmt.Errorf("nativeudt: connect failed: %w", unix.Errno(errno))
	}

	s.status.Store(int32(StatusConnected))
	return true, nil
}

// Accept accepts one pending peer connection, returning a new Socket
// already set non-blocking.
func (s *Socket) Accept() (*Socket, error) {
	nfd, rsa, err := unix.Accept4(int(s.fd), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if isWouldBlock(err) {
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("nativeudt: accept: %w", err)
	}

	peer := &Socket{fd: int32(nfd), remote: sockaddrToAddr(rsa)}
	peer.status.Store(int32(StatusConnected))
	return peer, nil
}

// Recv performs a single non-blocking receive into buf, returning the
// number of bytes read.
func (s *Socket) Recv(buf []byte) (int, error) {
	n, err := unix.Read(int(s.fd), buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, ErrWouldBlock
		}
		return 0, fmt.Errorf("nativeudt: recv: %w", err)
	}
	return n, nil
}

// Send performs a single non-blocking send of buf, returning the number of
// bytes accepted by the kernel.
func (s *Socket) Send(buf []byte) (int, error) {
	n, err := unix.Write(int(s.fd), buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, ErrWouldBlock
		}
		return 0, fmt.Errorf("nativeudt: send: %w", err)
	}
	s.bytesSent.Add(uint64(n))
	return n, nil
}

// Close closes the underlying file descriptor.
func (s *Socket) Close() error {
	s.status.Store(int32(StatusClosed))
	return unix.Close(int(s.fd))
}

func resolveSockaddr(addr string) (unix.Sockaddr, net.Addr, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("nativeudt: resolve %q: %w", addr, err)
	}
	var ip [4]byte
	copy(ip[:], tcpAddr.IP.To4())
	return &unix.SockaddrInet4{Port: tcpAddr.Port, Addr: ip}, tcpAddr, nil
}

func sockaddrToAddr(sa unix.Sockaddr) net.Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IPv4(v.Addr[0], v.Addr[1], v.Addr[2], v.Addr[3]), Port: v.Port}
	default:
		return nil
	}
}
