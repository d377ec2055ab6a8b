// Package serial provides the serial port transport for the L0 line.
package serial

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Port implements comm.Transport over an OS serial port.
// Reads are non-blocking; received bytes are buffered until consumed so
// Available reports how many bytes a Read will return.
type Port struct {
	Path string

	port    serial.Port
	buf     []byte
	scratch [256]byte
}

// Open opens the serial port at path with baud.
func Open(path string, baud int) (*Port, error) {
	sp, err := serial.Open(path, modeOf(baud))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	p, err := New(sp)
	if err != nil {
		sp.Close()
		return nil, err
	}
	p.Path = path
	return p, p.raiseModemLines()
}

// New wraps an opened serial.Port.
func New(sp serial.Port) (*Port, error) {
	if err := sp.SetReadTimeout(0); err != nil {
		return nil, err
	}
	return &Port{port: sp}, nil
}

func modeOf(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

func (p *Port) raiseModemLines() error {
	if err := p.port.SetDTR(true); err != nil {
		return err
	}
	return p.port.SetRTS(true)
}

// Configure implements comm.Transport.
func (p *Port) Configure(baud int) error {
	if err := p.port.SetMode(modeOf(baud)); err != nil {
		return err
	}
	return p.raiseModemLines()
}

// Available implements comm.Transport.
func (p *Port) Available() (int, error) {
	for {
		n, err := p.port.Read(p.scratch[:])
		if err != nil {
			return len(p.buf), err
		}
		if n == 0 {
			return len(p.buf), nil
		}
		p.buf = append(p.buf, p.scratch[:n]...)
	}
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	if len(p.buf) == 0 {
		n, err := p.Available()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.ErrNoProgress
		}
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Flush implements comm.Transport.
func (p *Port) Flush() error {
	p.buf = nil
	return p.port.ResetInputBuffer()
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return p.port.Close()
}
