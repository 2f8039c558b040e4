// Package nativeudt stands in for the native UDT transport library that the
// selector event loop is built to drive.
//
// Reliability and congestion control are delegated to the native transport
// layer, so this package does not attempt to reimplement a UDT wire
// protocol. Instead it exposes the contract a native binding would: a
// small, non-blocking, fd-identified socket handle with accept/connect/
// recv/send/status, built directly on raw stream-socket syscalls (see
// socket_linux.go).
package nativeudt
