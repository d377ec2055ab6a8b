package comm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	now   time.Time
	slept time.Duration
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
}

// testTransport delivers a scripted sequence of received chunks, one per
// Available call after the first write.
type testTransport struct {
	baud     int
	written  [][]byte
	flushes  int
	chunks   [][]byte
	pending  []byte
	availErr error
	closed   bool
}

func (t *testTransport) Configure(baud int) error {
	t.baud = baud
	return nil
}

func (t *testTransport) Write(p []byte) (int, error) {
	t.written = append(t.written, append([]byte(nil), p...))
	return len(p), nil
}

func (t *testTransport) Available() (int, error) {
	if t.availErr != nil {
		return 0, t.availErr
	}
	if len(t.chunks) > 0 {
		t.pending = append(t.pending, t.chunks[0]...)
		t.chunks = t.chunks[1:]
	}
	return len(t.pending), nil
}

func (t *testTransport) Read(p []byte) (int, error) {
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *testTransport) Flush() error {
	t.flushes++
	t.pending = nil
	return nil
}

func (t *testTransport) Close() error {
	t.closed = true
	return nil
}

func newTestLine(baud int) (*Line, *testTransport, *testClock) {
	tr := &testTransport{}
	clock := &testClock{now: time.Unix(0, 0)}
	line := NewLine(tr)
	line.Clock = clock
	line.Configure(baud)
	return line, tr, clock
}

func TestLineSend(t *testing.T) {
	line, tr, clock := newTestLine(100000)
	require.Equal(t, 100000, tr.baud)
	require.Equal(t, 100*time.Microsecond, line.ByteTime())

	tr.pending = []byte{1, 2, 3}
	require.NoError(t, line.Send(2, []byte{4}))
	require.Equal(t, 1, tr.flushes)
	require.Empty(t, tr.pending)
	require.Equal(t, [][]byte{{2, 5, 1, 4}}, tr.written)
	require.Equal(t, 400*time.Microsecond, clock.slept)
}

func TestLineReceive(t *testing.T) {
	line, tr, _ := newTestLine(115200)
	frame := ComposeFrame(0, []byte{3, 1, 2, 3})[1:]
	tr.chunks = [][]byte{nil, nil, frame[:2], frame[2:]}
	payload, err := line.Receive(25 * time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 1, 2, 3}, payload)
}

func TestLineReceiveTimeout(t *testing.T) {
	line, _, clock := newTestLine(115200)
	_, err := line.Receive(5 * time.Millisecond)
	require.Equal(t, ErrTransportTimeout, err)
	require.False(t, Delivered(err))
	require.True(t, clock.slept >= 5*time.Millisecond)
	require.True(t, clock.slept < 5*time.Millisecond+2*DefaultPollInterval)
}

func TestLineReceiveErrors(t *testing.T) {
	line, tr, _ := newTestLine(115200)
	tr.availErr = errors.New("ioctl failed")
	_, err := line.Receive(time.Millisecond)
	require.ErrorIs(t, err, ErrTransportIO)
	require.True(t, Delivered(err))

	tr.availErr = nil
	tr.chunks = [][]byte{{9, 1, 3}}
	_, err = line.Receive(time.Millisecond)
	require.Equal(t, ErrChecksumMismatch, err)
	require.True(t, Delivered(err))

	tr.chunks = [][]byte{{9}}
	_, err = line.Receive(time.Millisecond)
	require.Equal(t, ErrFrameTooShort, err)
}

func TestLineRequest(t *testing.T) {
	line, tr, _ := newTestLine(115200)
	tr.chunks = [][]byte{{5, 1, 4}}
	reply, err := line.Request(1, EmergencyStop(), time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, []byte{4}, reply)

	tr.chunks = [][]byte{{6, 1, 5}}
	_, err = line.Request(1, EmergencyStop(), time.Millisecond)
	require.ErrorIs(t, err, ErrKindMismatch)
}
