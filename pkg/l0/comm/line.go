package comm

import (
	"io"
	"time"

	"github.com/golang/glog"
)

// Transport is the byte transport of the shared serial line.
type Transport interface {
	io.ReadWriteCloser
	// Configure switches the line to baud.
	Configure(baud int) error
	// Available returns the number of received bytes ready for Read.
	Available() (int, error)
	// Flush discards all pending input.
	Flush() error
}

// Clock provides time for the poll loops.
type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the Clock backed by package time.
var SystemClock Clock = systemClock{}

// DefaultPollInterval is the pause between two byte-availability polls.
const DefaultPollInterval = 100 * time.Microsecond

// Line sends frames to and receives frames from the peers.
// It must be used by a single goroutine.
type Line struct {
	Transport    Transport
	Clock        Clock
	PollInterval time.Duration

	baud int
}

// NewLine creates a Line over a Transport.
func NewLine(t Transport) *Line {
	return &Line{
		Transport:    t,
		Clock:        SystemClock,
		PollInterval: DefaultPollInterval,
	}
}

// Baud returns the baud rate the line was last configured with.
func (l *Line) Baud() int {
	return l.baud
}

// Configure switches the line to baud.
func (l *Line) Configure(baud int) error {
	if err := l.Transport.Configure(baud); err != nil {
		return IOError("configure", err)
	}
	l.baud = baud
	return nil
}

// ByteTime is the time to transfer one byte (8N1) at the current baud.
func (l *Line) ByteTime() time.Duration {
	if l.baud <= 0 {
		return 0
	}
	return 10 * time.Second / time.Duration(l.baud)
}

// Send flushes pending input, writes a frame and waits until it's
// on the wire.
func (l *Line) Send(address byte, payload []byte) error {
	if err := l.Transport.Flush(); err != nil {
		return IOError("flush", err)
	}
	frame := &Frame{Address: address, Payload: payload}
	n, err := frame.WriteTo(l.Transport)
	if err != nil {
		return IOError("write", err)
	}
	if glog.V(2) {
		glog.Infof("TX %d: % x", address, payload)
	}
	l.Clock.Sleep(l.ByteTime() * time.Duration(n))
	return nil
}

// Receive waits for a reply and returns its payload. The reply ends when
// no byte arrives for two byte times. A zero timeout waits forever.
func (l *Line) Receive(timeout time.Duration) ([]byte, error) {
	start := l.Clock.Now()
	n, err := l.Transport.Available()
	for err == nil && n == 0 {
		if timeout > 0 && l.Clock.Now().Sub(start) >= timeout {
			return nil, ErrTransportTimeout
		}
		l.Clock.Sleep(l.PollInterval)
		n, err = l.Transport.Available()
	}
	for received := 0; err == nil && received < n; {
		received = n
		l.Clock.Sleep(2 * l.ByteTime())
		n, err = l.Transport.Available()
	}
	if err != nil {
		return nil, IOError("available", err)
	}
	buf := make([]byte, n)
	if _, err = io.ReadFull(l.Transport, buf); err != nil {
		return nil, IOError("read", err)
	}
	if glog.V(2) {
		glog.Infof("RX: % x", buf)
	}
	return ParseFrame(buf)
}

// Request sends payload and waits for the echo acknowledging it.
func (l *Line) Request(address byte, payload []byte, timeout time.Duration) ([]byte, error) {
	if err := l.Send(address, payload); err != nil {
		return nil, err
	}
	reply, err := l.Receive(timeout)
	if err != nil {
		return nil, err
	}
	return reply, CheckEcho(Kind(payload[0]), reply)
}
