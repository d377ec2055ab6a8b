package brick

import (
	"fmt"
	"time"

	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// Topology of a brick.
const (
	NumLinks     = 2
	PortsPerLink = 2
	NumPorts     = NumLinks * PortsPerLink
)

// Motor and encoder ports.
const (
	PortA = 0
	PortB = 1
	PortC = 2
	PortD = 3
)

// Sensor ports.
const (
	Port1 = 0
	Port2 = 1
	Port3 = 2
	Port4 = 3
)

// Motor defaults.
const (
	DefaultKP   = 2.0
	DefaultKD   = 5.0
	DefaultDead = 10
)

// DefaultLinkTimeout is the default time a peer waits for a valid
// exchange before floating its motors.
const DefaultLinkTimeout = 250 * time.Millisecond

// MotorMode selects how a motor port is driven.
type MotorMode int

// Motor modes.
const (
	MotorFloat MotorMode = iota
	MotorSpeed
	MotorPosition
)

var motorModeNames = []string{"float", "speed", "position"}

// String implements fmt.Stringer.
func (m MotorMode) String() string {
	if m >= 0 && int(m) < len(motorModeNames) {
		return motorModeNames[m]
	}
	return "unknown"
}

// ParseMotorMode converts a name produced by String back to MotorMode.
func ParseMotorMode(name string) (MotorMode, error) {
	for m, n := range motorModeNames {
		if n == name {
			return MotorMode(m), nil
		}
	}
	return MotorFloat, fmt.Errorf("unknown motor mode %q", name)
}

// Motor is the state of a motor port.
type Motor struct {
	Mode MotorMode
	// Speed is used by MotorSpeed, in [-255, 255].
	Speed int
	// Target is the encoder position MotorPosition regulates to.
	Target int32
	KP     float64
	KD     float64
	Dead   float64
	// LastError is the position error of the previous cycle.
	LastError int32
}

// Encoder is the state of an encoder port.
type Encoder struct {
	// Value mirrors the count maintained by the peer.
	Value int32
	// Offset is a delta pending to be applied by the peer.
	Offset int32
}

// Sensor is the configuration and the latest reading of a sensor port.
type Sensor struct {
	comm.SensorConfig
	comm.SensorReading
}

// Link is the peer endpoint serving two ports of each kind.
type Link struct {
	Address byte
	// Timeout is sent to the peer with TimeoutConfig, 0 disables it.
	Timeout time.Duration
}

// Device is the complete state of a brick.
type Device struct {
	Links    [NumLinks]Link
	Motors   [NumPorts]Motor
	Encoders [NumPorts]Encoder
	Sensors  [NumPorts]Sensor
	// LEDs are the levels of the indicator outputs.
	LEDs [2]bool
}

// NewDevice creates a Device with default addresses and motor gains.
func NewDevice() *Device {
	d := &Device{}
	for i := range d.Links {
		d.Links[i] = Link{Address: byte(i + 1), Timeout: DefaultLinkTimeout}
	}
	for i := range d.Motors {
		d.Motors[i] = Motor{KP: DefaultKP, KD: DefaultKD, Dead: DefaultDead}
	}
	return d
}

// PortOf returns the port index of the nth port of a link.
func PortOf(link, n int) int {
	return link*PortsPerLink + n
}

// LinkOf returns the link serving a port.
func LinkOf(port int) int {
	return port / PortsPerLink
}

// SetSpeed drives a motor at a constant speed.
func (d *Device) SetSpeed(port, speed int) {
	m := &d.Motors[port]
	m.Mode, m.Speed = MotorSpeed, clip(speed)
}

// SetTarget regulates a motor to an encoder position.
func (d *Device) SetTarget(port int, target int32) {
	m := &d.Motors[port]
	if m.Mode != MotorPosition {
		m.LastError = 0
	}
	m.Mode, m.Target = MotorPosition, target
}

// Float lets a motor spin freely.
func (d *Device) Float(port int) {
	d.Motors[port].Mode = MotorFloat
}

// FloatAll floats every motor.
func (d *Device) FloatAll() {
	for port := range d.Motors {
		d.Float(port)
	}
}

// OffsetEncoder schedules a delta to be added to an encoder by the peer.
func (d *Device) OffsetEncoder(port int, delta int32) {
	d.Encoders[port].Offset += delta
}

// SensorConfigs returns the sensor configuration of a link.
func (d *Device) SensorConfigs(link int) (cfgs [PortsPerLink]comm.SensorConfig) {
	for n := range cfgs {
		cfgs[n] = d.Sensors[PortOf(link, n)].SensorConfig
	}
	return
}

// valuesRequest builds the outbound exchange of a link, regulating
// motors in MotorPosition.
func (d *Device) valuesRequest(link int) *comm.ValuesRequest {
	req := &comm.ValuesRequest{Sensors: d.SensorConfigs(link)}
	for n := 0; n < PortsPerLink; n++ {
		port := PortOf(link, n)
		req.EncoderOffsets[n] = d.Encoders[port].Offset
		req.Motors[n] = d.Motors[port].Command(d.Encoders[port].Value)
	}
	return req
}

func (d *Device) clearOffsets(link int) {
	for n := 0; n < PortsPerLink; n++ {
		d.Encoders[PortOf(link, n)].Offset = 0
	}
}

func (d *Device) applyValues(link int, reply *comm.ValuesReply) {
	for n := 0; n < PortsPerLink; n++ {
		port := PortOf(link, n)
		d.Encoders[port].Value = reply.Encoders[n]
		s, r := &d.Sensors[port], &reply.Sensors[n]
		s.Value, s.Channels = r.Value, r.Channels
		if !s.Type.IsI2C() {
			continue
		}
		for i := 0; i < s.I2C.DeviceCount(); i++ {
			if r.Value&(1<<uint(i)) != 0 {
				s.I2CIn[i] = r.I2CIn[i]
			}
		}
	}
}
