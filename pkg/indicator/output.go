// Package indicator drives cosmetic digital outputs (LEDs) on the host
// board. Nothing in the L0 protocol depends on it.
package indicator

import (
	"fmt"
	"os"
	"strconv"
)

// LED ids.
const (
	LED1 = 0
	LED2 = 1
)

// Output is a sink of digital output levels.
type Output interface {
	SetOutput(id int, level bool) error
}

// Nop discards all output.
type Nop struct{}

// SetOutput implements Output.
func (Nop) SetOutput(int, bool) error { return nil }

// Sysfs writes levels to GPIO value files exported by the OS.
type Sysfs struct {
	// Root is the sysfs GPIO directory, usually /sys/class/gpio.
	Root string
	// Pins maps output ids to GPIO numbers.
	Pins map[int]int
}

// SetOutput implements Output.
func (s *Sysfs) SetOutput(id int, level bool) error {
	pin, ok := s.Pins[id]
	if !ok {
		return fmt.Errorf("unknown output %d", id)
	}
	val := []byte{'0'}
	if level {
		val[0] = '1'
	}
	path := s.Root + "/gpio" + strconv.Itoa(pin) + "/value"
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(val)
	return err
}

// Boards known by New.
const (
	BoardNone = "none"
	BoardBBB  = "bbb"
	BoardRPi  = "rpi"
)

// New creates the Output for a board.
func New(board string) (Output, error) {
	switch board {
	case "", BoardNone:
		return Nop{}, nil
	case BoardBBB:
		return &Sysfs{Root: "/sys/class/gpio", Pins: map[int]int{LED1: 50, LED2: 51}}, nil
	case BoardRPi:
		// wiringPi pins 1 and 2 are BCM 18 and 27.
		return &Sysfs{Root: "/sys/class/gpio", Pins: map[int]int{LED1: 18, LED2: 27}}, nil
	default:
		return nil, fmt.Errorf("unknown board %q", board)
	}
}

// Recorder keeps the latest level of each output, and forwards to an
// optional Output.
type Recorder struct {
	Output Output
	Levels map[int]bool
}

// SetOutput implements Output.
func (r *Recorder) SetOutput(id int, level bool) error {
	if r.Levels == nil {
		r.Levels = make(map[int]bool)
	}
	r.Levels[id] = level
	if r.Output != nil {
		return r.Output.SetOutput(id, level)
	}
	return nil
}
