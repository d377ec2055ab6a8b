package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportTimeout indicates no byte arrived before the deadline.
	// This is the only failure which proves the peer did not receive
	// the request.
	ErrTransportTimeout = errors.New("transport timeout")
	// ErrTransportIO indicates the underlying read/write/configure failed.
	ErrTransportIO = errors.New("transport I/O error")
	// ErrFrameTooShort indicates the received frame lacks a header.
	ErrFrameTooShort = errors.New("frame too short")
	// ErrFrameLengthMismatch indicates declared length differs from the
	// number of payload bytes received.
	ErrFrameLengthMismatch = errors.New("frame length mismatch")
	// ErrChecksumMismatch indicates the checksum doesn't match the payload.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrKindMismatch indicates the reply is not an echo of the request
	// kind, or has the wrong length for that kind.
	ErrKindMismatch = errors.New("kind mismatch")
	// ErrConfigRejected indicates a configuration request was not
	// acknowledged by the peer.
	ErrConfigRejected = errors.New("config rejected")
)

// Delivered reports whether the peer may have received the request
// which failed with err. It is false only when the transport positively
// confirms nothing came back before the deadline.
func Delivered(err error) bool {
	return !errors.Is(err, ErrTransportTimeout)
}

// IOError wraps an error from the transport.
func IOError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTransportIO, err)
}
