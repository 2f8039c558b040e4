//go:build !linux

package selector

import "errors"

// ErrUnsupportedPlatform is returned by the poller on platforms other than
// Linux; see package nativeudt for the matching native-socket stub.
var ErrUnsupportedPlatform = errors.New("selector: unsupported platform")

type nativePoller struct{}

func newNativePoller() (*nativePoller, error) { return nil, ErrUnsupportedPlatform }

func (p *nativePoller) close() error { return ErrUnsupportedPlatform }

func (p *nativePoller) add(fd int32, readable, writable, errorFlag bool) error {
	return ErrUnsupportedPlatform
}

func (p *nativePoller) modify(fd int32, readable, writable, errorFlag bool) error {
	return ErrUnsupportedPlatform
}

func (p *nativePoller) remove(fd int32) error { return ErrUnsupportedPlatform }

func (p *nativePoller) wait(timeoutMs int, onReadable, onWritable func(fd int32)) error {
	return ErrUnsupportedPlatform
}
