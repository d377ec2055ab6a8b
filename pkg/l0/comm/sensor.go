package comm

import "fmt"

// SensorType selects how a sensor port is driven and how its reading is
// packed into the values reply.
type SensorType byte

// Sensor port pin masks used to compose raw sensor types.
const (
	MaskD0M byte = 0x01
	MaskD1M byte = 0x02
	Mask9V  byte = 0x04
	MaskD0S byte = 0x08
	MaskD1S byte = 0x10
)

// Sensor types. Values 0-31 are raw types composed from pin masks.
const (
	SensorRaw            SensorType = 0
	SensorLightOff       SensorType = 0
	SensorLightOn        SensorType = SensorType(MaskD0M | MaskD0S)
	SensorTouch          SensorType = 32
	SensorUltrasonicCont SensorType = 33
	SensorUltrasonicSS   SensorType = 34
	SensorRCXLight       SensorType = 35
	SensorColorFull      SensorType = 36
	SensorColorRed       SensorType = 37
	SensorColorGreen     SensorType = 38
	SensorColorBlue      SensorType = 39
	SensorColorNone      SensorType = 40
	SensorI2C            SensorType = 41
	SensorI2C9V          SensorType = 42
)

var sensorTypeNames = map[SensorType]string{
	SensorRaw:            "raw",
	SensorLightOn:        "light-on",
	SensorTouch:          "touch",
	SensorUltrasonicCont: "ultrasonic",
	SensorUltrasonicSS:   "ultrasonic-ss",
	SensorRCXLight:       "rcx-light",
	SensorColorFull:      "color",
	SensorColorRed:       "color-red",
	SensorColorGreen:     "color-green",
	SensorColorBlue:      "color-blue",
	SensorColorNone:      "color-none",
	SensorI2C:            "i2c",
	SensorI2C9V:          "i2c-9v",
}

// String implements fmt.Stringer.
func (t SensorType) String() string {
	if name, ok := sensorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("raw-%d", byte(t))
}

// ParseSensorType converts a name produced by String back to SensorType.
func ParseSensorType(name string) (SensorType, error) {
	if name == "light-off" {
		return SensorLightOff, nil
	}
	for t, n := range sensorTypeNames {
		if n == name {
			return t, nil
		}
	}
	var raw byte
	if _, err := fmt.Sscanf(name, "raw-%d", &raw); err == nil && raw < 32 {
		return SensorType(raw), nil
	}
	return 0, fmt.Errorf("unknown sensor type %q", name)
}

// IsI2C indicates the port hosts an I2C sub-bus.
func (t SensorType) IsI2C() bool {
	return t == SensorI2C || t == SensorI2C9V
}

// Indices into SensorReading.Channels for SensorColorFull.
const (
	ColorRed   = 0
	ColorGreen = 1
	ColorBlue  = 2
	ColorBlank = 3
)

// I2C device flags.
const (
	// I2CFlagMid requests an extra clock pulse between write and read.
	I2CFlagMid byte = 0x01
	// I2CFlagSame marks write data and lengths fixed for every cycle; they
	// are sent once with the sensor setup instead of with each exchange.
	I2CFlagSame byte = 0x02
)

// I2C sub-bus limits.
const (
	MaxI2CDevices = 8
	MaxI2CBytes   = 16
	// MaxI2CTransfer is the largest length a 4-bit length field holds.
	MaxI2CTransfer = 15
)

// I2CDevice configures one device on an I2C sub-bus.
type I2CDevice struct {
	Addr     byte
	Flags    byte
	WriteLen byte
	ReadLen  byte
	Out      [MaxI2CBytes]byte
}

// I2CBus configures the I2C sub-bus of a sensor port.
type I2CBus struct {
	Speed   byte
	Count   int
	Devices [MaxI2CDevices]I2CDevice
}

// DeviceCount returns Count clamped into [1, MaxI2CDevices].
func (b *I2CBus) DeviceCount() int {
	switch {
	case b.Count < 1:
		return 1
	case b.Count > MaxI2CDevices:
		return MaxI2CDevices
	}
	return b.Count
}

// SensorConfig is the part of a sensor port which shapes the wire format.
type SensorConfig struct {
	Type SensorType
	I2C  I2CBus
}

// SensorReading is what a peer reports for one sensor port.
type SensorReading struct {
	Value    uint32
	Channels [4]uint32
	I2CIn    [MaxI2CDevices][MaxI2CBytes]byte
}

func appendI2CTransfer(b *Bits, dev *I2CDevice) {
	wlen, rlen := clampI2CLen(dev.WriteLen), clampI2CLen(dev.ReadLen)
	b.Append(4, uint32(wlen))
	b.Append(4, uint32(rlen))
	for i := byte(0); i < wlen; i++ {
		b.Append(8, uint32(dev.Out[i]))
	}
}

func clampI2CLen(n byte) byte {
	if n > MaxI2CTransfer {
		return MaxI2CTransfer
	}
	return n
}

func (c *SensorConfig) appendSetup(b *Bits) {
	if !c.Type.IsI2C() {
		return
	}
	count := c.I2C.DeviceCount()
	b.Append(8, uint32(c.I2C.Speed))
	b.Append(3, uint32(count-1))
	for i := 0; i < count; i++ {
		dev := &c.I2C.Devices[i]
		b.Append(7, uint32(dev.Addr>>1))
		b.Append(2, uint32(dev.Flags&(I2CFlagMid|I2CFlagSame)))
		if dev.Flags&I2CFlagSame != 0 {
			appendI2CTransfer(b, dev)
		}
	}
}

func (c *SensorConfig) appendValues(b *Bits) {
	if !c.Type.IsI2C() {
		return
	}
	for i, count := 0, c.I2C.DeviceCount(); i < count; i++ {
		if dev := &c.I2C.Devices[i]; dev.Flags&I2CFlagSame == 0 {
			appendI2CTransfer(b, dev)
		}
	}
}

func (c *SensorConfig) readValues(b *Bits, r *SensorReading) {
	switch c.Type {
	case SensorTouch:
		r.Value = b.Read(1)
	case SensorUltrasonicCont, SensorUltrasonicSS:
		r.Value = b.Read(8)
	case SensorColorFull:
		r.Value = b.Read(3)
		r.Channels[ColorBlank] = b.Read(10)
		r.Channels[ColorRed] = b.Read(10)
		r.Channels[ColorGreen] = b.Read(10)
		r.Channels[ColorBlue] = b.Read(10)
	case SensorI2C, SensorI2C9V:
		count := c.I2C.DeviceCount()
		r.Value = b.Read(uint(count))
		for i := 0; i < count; i++ {
			if r.Value&(1<<uint(i)) == 0 {
				continue
			}
			for n := byte(0); n < clampI2CLen(c.I2C.Devices[i].ReadLen); n++ {
				r.I2CIn[i][n] = byte(b.Read(8))
			}
		}
	default:
		r.Value = b.Read(10)
	}
}
