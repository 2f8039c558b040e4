//go:build !linux

package nativeudt

import (
	"errors"
	"net"
)

// ErrUnsupportedPlatform is returned by every operation on platforms other
// than Linux, which is the only platform this native socket layer
// implements (it is built directly on epoll-adjacent raw socket syscalls;
// see socket_linux.go).
var ErrUnsupportedPlatform = errors.New("nativeudt: unsupported platform")

// ErrWouldBlock mirrors the Linux implementation's sentinel so callers can
// compile a single code path against both; it is never actually returned on
// this stub platform.
var ErrWouldBlock = errors.New("nativeudt: operation would block")

// Socket is a non-functional placeholder on unsupported platforms.
type Socket struct{}

func Init() error { return ErrUnsupportedPlatform }

func Listen(addr string) (*Socket, error) { return nil, ErrUnsupportedPlatform }

func Connect(addr string) (*Socket, bool, error) { return nil, false, ErrUnsupportedPlatform }

func (s *Socket) Handle() int32                       { return -1 }
func (s *Socket) Status() Status                      { return StatusClosed }
func (s *Socket) BytesSent() uint64                   { return 0 }
func (s *Socket) RemoteAddr() net.Addr                { return nil }
func (s *Socket) FinishConnect() (bool, error)        { return false, ErrUnsupportedPlatform }
func (s *Socket) Accept() (*Socket, error)            { return nil, ErrUnsupportedPlatform }
func (s *Socket) Recv(buf []byte) (int, error)        { return 0, ErrUnsupportedPlatform }
func (s *Socket) Send(buf []byte) (int, error)        { return 0, ErrUnsupportedPlatform }
func (s *Socket) Close() error                        { return ErrUnsupportedPlatform }
