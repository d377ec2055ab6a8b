package comm

import "fmt"

// Kind identifies a message by payload byte 0.
type Kind byte

// Message kinds.
const (
	KindAddressChange    Kind = 1
	KindSensorTypeConfig Kind = 2
	KindValuesExchange   Kind = 3
	KindEmergencyStop    Kind = 4
	KindTimeoutConfig    Kind = 5
	KindBaudConfig       Kind = 6
)

var kindNames = map[Kind]string{
	KindAddressChange:    "AddressChange",
	KindSensorTypeConfig: "SensorTypeConfig",
	KindValuesExchange:   "ValuesExchange",
	KindEmergencyStop:    "EmergencyStop",
	KindTimeoutConfig:    "TimeoutConfig",
	KindBaudConfig:       "BaudConfig",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// CheckEcho verifies reply acknowledges a request of kind. Every kind but
// ValuesExchange is acknowledged with exactly the kind byte.
func CheckEcho(kind Kind, reply []byte) error {
	if len(reply) == 0 || Kind(reply[0]) != kind {
		return fmt.Errorf("%v reply: %w", kind, ErrKindMismatch)
	}
	if kind != KindValuesExchange && len(reply) != 1 {
		return fmt.Errorf("%v reply length %d: %w", kind, len(reply), ErrKindMismatch)
	}
	return nil
}

// AddressChange builds the payload moving a peer to a new address.
func AddressChange(addr byte) []byte {
	return []byte{byte(KindAddressChange), addr}
}

// EmergencyStop builds the payload floating all motors of a peer.
func EmergencyStop() []byte {
	return []byte{byte(KindEmergencyStop)}
}

// TimeoutConfig builds the payload setting the peer communication timeout.
// Motors float when no valid exchange happens for that long; 0 disables it.
func TimeoutConfig(ms uint32) []byte {
	return []byte{byte(KindTimeoutConfig), byte(ms), byte(ms >> 8), byte(ms >> 16), byte(ms >> 24)}
}

// BaudConfig builds the payload switching the peer to a new baud rate.
func BaudConfig(baud uint32) []byte {
	return []byte{byte(KindBaudConfig), byte(baud), byte(baud >> 8), byte(baud >> 16)}
}

// SensorTypeConfig builds the payload configuring both sensor ports of
// a peer, including the fixed part of any I2C sub-bus.
func SensorTypeConfig(ports [2]SensorConfig) []byte {
	b := NewBits(3)
	b.buf[0], b.buf[1], b.buf[2] = byte(KindSensorTypeConfig), byte(ports[0].Type), byte(ports[1].Type)
	for i := range ports {
		ports[i].appendSetup(b)
	}
	return b.Bytes()
}

// MotorCommand is the per-cycle drive of one motor port.
type MotorCommand struct {
	Enabled bool
	Reverse bool
	Speed   uint8
}

// Word packs the command into its 10-bit wire form.
func (m MotorCommand) Word() uint32 {
	if !m.Enabled {
		return 0
	}
	var dir uint32
	if m.Reverse {
		dir = 1
	}
	return (uint32(m.Speed)<<2 | dir<<1 | 1) & 0x3ff
}

// ValuesRequest is the outbound half of a values exchange.
type ValuesRequest struct {
	// EncoderOffsets are deltas the peer adds to its encoder counts.
	EncoderOffsets [2]int32
	Motors         [2]MotorCommand
	Sensors        [2]SensorConfig
}

// AppendSigned packs v as a 5-bit width header followed by the
// magnitude doubled with the sign in bit 0.
func AppendSigned(b *Bits, v int32) {
	var sign uint32
	mag := int64(v)
	if mag < 0 {
		sign, mag = 1, -mag
	}
	if mag > 0x7fffffff {
		mag = 0x7fffffff
	}
	width := MinimumBits(uint32(mag))
	b.Append(5, uint32(width))
	b.Append(width+1, uint32(mag)<<1|sign)
}

// ReadSigned decodes a value of width bits packed as magnitude doubled
// with the sign in bit 0.
func ReadSigned(b *Bits, width uint) int32 {
	v := b.Read(width)
	if v&1 != 0 {
		return -int32(v >> 1)
	}
	return int32(v >> 1)
}

// Encode builds the payload.
func (r *ValuesRequest) Encode() []byte {
	b := NewBits(1)
	b.buf[0] = byte(KindValuesExchange)
	for _, offset := range r.EncoderOffsets {
		if offset == 0 {
			b.Append(1, 0)
			continue
		}
		b.Append(1, 1)
		AppendSigned(b, offset)
	}
	for _, m := range r.Motors {
		b.Append(10, m.Word())
	}
	for i := range r.Sensors {
		r.Sensors[i].appendValues(b)
	}
	return b.Bytes()
}

// ValuesReply is the inbound half of a values exchange.
type ValuesReply struct {
	Encoders [2]int32
	Sensors  [2]SensorReading
}

// DecodeValuesReply parses a values reply. The layout of the sensor blocks
// depends on the sensor configuration, which must be the one the peer
// was set up with.
func DecodeValuesReply(payload []byte, sensors [2]SensorConfig) (*ValuesReply, error) {
	if err := CheckEcho(KindValuesExchange, payload); err != nil {
		return nil, err
	}
	b := BitsOf(payload, 1)
	var widths [2]uint
	for i := range widths {
		widths[i] = uint(b.Read(5))
	}
	r := &ValuesReply{}
	for i, w := range widths {
		r.Encoders[i] = ReadSigned(b, w)
	}
	for i := range sensors {
		sensors[i].readValues(b, &r.Sensors[i])
	}
	if b.Overflow() {
		return nil, fmt.Errorf("values reply truncated at %d bytes: %w", len(payload), ErrKindMismatch)
	}
	return r, nil
}
