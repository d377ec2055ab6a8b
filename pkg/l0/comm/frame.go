package comm

import (
	"io"
)

// BroadcastAddress is received by both peers, and never answered.
const BroadcastAddress byte = 0

// Frame is an outbound frame addressed to one peer.
type Frame struct {
	Address byte
	Payload []byte
}

// Checksum computes the additive checksum over length and payload.
func Checksum(payload []byte) byte {
	sum := byte(len(payload))
	for _, b := range payload {
		sum += b
	}
	return sum
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, len(f.Payload)+3)
	b[0], b[1], b[2] = f.Address, Checksum(f.Payload), byte(len(f.Payload))
	copy(b[3:], f.Payload)
	return b
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// ComposeFrame encodes payload for address.
func ComposeFrame(address byte, payload []byte) []byte {
	return (&Frame{Address: address, Payload: payload}).Bytes()
}

// ParseFrame validates a received frame and returns its payload.
// A received frame starts with the checksum; the address is implied by
// the link being read.
func ParseFrame(b []byte) ([]byte, error) {
	if len(b) < 2 {
		return nil, ErrFrameTooShort
	}
	payload := b[2:]
	if int(b[1]) != len(payload) {
		return nil, ErrFrameLengthMismatch
	}
	if Checksum(payload) != b[0] {
		return nil, ErrChecksumMismatch
	}
	return payload, nil
}
