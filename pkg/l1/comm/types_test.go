package comm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testWriter struct {
	packets [][]byte
	err     error
}

func (w *testWriter) WritePacket(pkt []byte) error {
	w.packets = append(w.packets, pkt)
	return w.err
}

func TestPacketWriters(t *testing.T) {
	errClosed := errors.New("closed")
	w1, w2, w3 := &testWriter{}, &testWriter{err: errClosed}, &testWriter{}
	writers := PacketWriters{w1, w2, w3}
	err := writers.WritePacket([]byte{1})
	require.True(t, errors.Is(err, errClosed))
	for _, w := range []*testWriter{w1, w2, w3} {
		require.Equal(t, [][]byte{{1}}, w.packets)
	}
	require.NoError(t, PacketWriters{}.WritePacket([]byte{1}))
}
