package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	testCases := []struct {
		name   string
		frame  Frame
		expect []byte
	}{
		{"no payload", Frame{Address: 1}, []byte{1, 0, 0}},
		{"estop", Frame{Address: 2, Payload: []byte{4}}, []byte{2, 5, 1, 4}},
		{"broadcast", Frame{Payload: []byte{4}}, []byte{0, 5, 1, 4}},
		{"wrap", Frame{Address: 1, Payload: []byte{6, 0x00, 0xc2, 0x01, 0xff, 0x40}}, []byte{1, 0x0e, 6, 6, 0x00, 0xc2, 0x01, 0xff, 0x40}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.frame.Bytes())
			require.Equal(t, tc.expect, ComposeFrame(tc.frame.Address, tc.frame.Payload))
			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, int64(len(tc.expect)), n)
		})
	}
}

func TestParseFrame(t *testing.T) {
	payload := []byte{3, 0x12, 0x34, 0x56, 0x78}
	frame := ComposeFrame(1, payload)

	parsed, err := ParseFrame(frame[1:])
	require.NoError(t, err)
	require.Equal(t, payload, parsed)

	for i := 3; i < len(frame); i++ {
		for bit := uint(0); bit < 8; bit++ {
			corrupted := append([]byte(nil), frame[1:]...)
			corrupted[i-1] ^= 1 << bit
			_, err := ParseFrame(corrupted)
			require.Equal(t, ErrChecksumMismatch, err, "byte %d bit %d", i, bit)
		}
	}
}

func TestParseFrameErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrFrameTooShort},
		{"one byte", []byte{1}, ErrFrameTooShort},
		{"missing payload", []byte{4, 2, 3}, ErrFrameLengthMismatch},
		{"extra payload", []byte{4, 1, 3, 0}, ErrFrameLengthMismatch},
		{"checksum", []byte{5, 1, 3}, ErrChecksumMismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFrame(tc.data)
			require.Equal(t, tc.err, err)
		})
	}

	payload, err := ParseFrame([]byte{0, 0})
	require.NoError(t, err)
	require.Empty(t, payload)
}
