package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3, 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func TestReadWriterErrors(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{2, 0, 0, 0, 1}))
	_, err := rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)

	rw = New(bytes.NewBuffer([]byte{0, 0, 0, 1}))
	_, err = rw.ReadPacket()
	require.Equal(t, ErrPacketTooLarge, err)

	require.Equal(t, ErrPacketTooLarge, rw.WritePacket(make([]byte, MaxPacketSize+1)))
}
