package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedMessages(t *testing.T) {
	require.Equal(t, []byte{1, 3}, AddressChange(3))
	require.Equal(t, []byte{4}, EmergencyStop())
	require.Equal(t, []byte{5, 0xfa, 0x00, 0x00, 0x00}, TimeoutConfig(250))
	require.Equal(t, []byte{5, 0x78, 0x56, 0x34, 0x12}, TimeoutConfig(0x12345678))
	require.Equal(t, []byte{6, 0x00, 0xc2, 0x01}, BaudConfig(115200))
	require.Equal(t, []byte{6, 0xc0, 0xc6, 0x2d}, BaudConfig(3000000))
}

func TestCheckEcho(t *testing.T) {
	require.NoError(t, CheckEcho(KindEmergencyStop, []byte{4}))
	require.NoError(t, CheckEcho(KindValuesExchange, []byte{3, 0, 0}))
	require.ErrorIs(t, CheckEcho(KindEmergencyStop, nil), ErrKindMismatch)
	require.ErrorIs(t, CheckEcho(KindEmergencyStop, []byte{5}), ErrKindMismatch)
	require.ErrorIs(t, CheckEcho(KindBaudConfig, []byte{6, 0}), ErrKindMismatch)
}

func TestSignedField(t *testing.T) {
	testCases := []struct {
		value int32
		bits  uint
	}{
		{5, 5 + 3 + 1},
		{-5, 5 + 3 + 1},
		{1, 5 + 1 + 1},
		{-1, 5 + 1 + 1},
		{1000, 5 + 10 + 1},
		{0x7fffffff, 5 + 31 + 1},
	}
	for _, tc := range testCases {
		b := NewBits(1)
		AppendSigned(b, tc.value)
		require.Equal(t, tc.bits, b.Cursor(), "value %d", tc.value)
		r := BitsOf(b.Bytes(), 1)
		width := uint(r.Read(5))
		require.Equal(t, MinimumBits(uint32(abs(tc.value))), width)
		require.Equal(t, tc.value, ReadSigned(r, width+1))
	}
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestValuesRequestOffsets(t *testing.T) {
	req := &ValuesRequest{}
	// both offsets absent, both motors float: 1+1+10+10 bits
	require.Equal(t, []byte{3, 0, 0, 0}, req.Encode())

	req.EncoderOffsets = [2]int32{5, -5}
	b := BitsOf(req.Encode(), 1)
	for _, expect := range req.EncoderOffsets {
		require.Equal(t, uint32(1), b.Read(1))
		width := uint(b.Read(5))
		require.Equal(t, uint(3), width)
		require.Equal(t, expect, ReadSigned(b, width+1))
	}
	require.Equal(t, uint32(0), b.Read(10))
	require.Equal(t, uint32(0), b.Read(10))
	require.False(t, b.Overflow())
}

func TestValuesRequestMotors(t *testing.T) {
	req := &ValuesRequest{
		Motors: [2]MotorCommand{
			{Enabled: true, Speed: 200},
			{Enabled: true, Reverse: true, Speed: 255},
		},
	}
	b := BitsOf(req.Encode(), 1)
	require.Equal(t, uint32(0), b.Read(2))
	require.Equal(t, uint32(200<<2|1), b.Read(10))
	require.Equal(t, uint32(255<<2|2|1), b.Read(10))

	require.Equal(t, uint32(0), MotorCommand{Reverse: true, Speed: 100}.Word())
}

func TestValuesRequestI2C(t *testing.T) {
	var i2c SensorConfig
	i2c.Type = SensorI2C
	i2c.I2C.Count = 2
	i2c.I2C.Devices[0] = I2CDevice{Addr: 0x02, Flags: I2CFlagSame, WriteLen: 1, ReadLen: 1, Out: [16]byte{0x42}}
	i2c.I2C.Devices[1] = I2CDevice{Addr: 0x04, WriteLen: 2, ReadLen: 6, Out: [16]byte{0xaa, 0x55}}
	req := &ValuesRequest{Sensors: [2]SensorConfig{{Type: SensorTouch}, i2c}}
	b := BitsOf(req.Encode(), 1)
	b.Read(2 + 20)
	// only the device without I2CFlagSame
	require.Equal(t, uint32(2), b.Read(4))
	require.Equal(t, uint32(6), b.Read(4))
	require.Equal(t, uint32(0xaa), b.Read(8))
	require.Equal(t, uint32(0x55), b.Read(8))
	require.Equal(t, uint(22+24), b.Cursor())
}

func TestSensorTypeConfig(t *testing.T) {
	payload := SensorTypeConfig([2]SensorConfig{{Type: SensorTouch}, {Type: SensorColorFull}})
	require.Equal(t, []byte{2, 32, 36}, payload)

	var i2c SensorConfig
	i2c.Type = SensorI2C9V
	i2c.I2C.Speed = 10
	i2c.I2C.Count = 2
	i2c.I2C.Devices[0] = I2CDevice{Addr: 0x02, Flags: I2CFlagSame | I2CFlagMid, WriteLen: 1, ReadLen: 3, Out: [16]byte{0x42}}
	i2c.I2C.Devices[1] = I2CDevice{Addr: 0xa0}
	payload = SensorTypeConfig([2]SensorConfig{{Type: SensorRaw}, i2c})
	require.Equal(t, []byte{2, 0, 42}, payload[:3])
	b := BitsOf(payload, 3)
	require.Equal(t, uint32(10), b.Read(8))
	require.Equal(t, uint32(1), b.Read(3))
	require.Equal(t, uint32(0x01), b.Read(7))
	require.Equal(t, uint32(3), b.Read(2))
	require.Equal(t, uint32(1), b.Read(4))
	require.Equal(t, uint32(3), b.Read(4))
	require.Equal(t, uint32(0x42), b.Read(8))
	require.Equal(t, uint32(0x50), b.Read(7))
	require.Equal(t, uint32(0), b.Read(2))
	require.Equal(t, len(payload), 3+int((b.Cursor()+7)/8))
}

func encodeReply(encoders [2]int32, fn func(b *Bits)) []byte {
	b := NewBits(1)
	b.buf[0] = byte(KindValuesExchange)
	var values [2]uint32
	var widths [2]uint
	for i, v := range encoders {
		mag, sign := v, uint32(0)
		if v < 0 {
			mag, sign = -v, 1
		}
		values[i] = uint32(mag)<<1 | sign
		widths[i] = MinimumBits(values[i])
		b.Append(5, uint32(widths[i]))
	}
	for i := range values {
		b.Append(widths[i], values[i])
	}
	fn(b)
	return b.Bytes()
}

func TestDecodeValuesReply(t *testing.T) {
	sensors := [2]SensorConfig{{Type: SensorTouch}, {Type: SensorColorFull}}
	payload := encodeReply([2]int32{1234, -77}, func(b *Bits) {
		b.Append(1, 1)
		b.Append(3, 6)
		for _, v := range []uint32{10, 20, 30, 40} {
			b.Append(10, v)
		}
	})
	r, err := DecodeValuesReply(payload, sensors)
	require.NoError(t, err)
	require.Equal(t, [2]int32{1234, -77}, r.Encoders)
	require.Equal(t, uint32(1), r.Sensors[0].Value)
	require.Equal(t, uint32(6), r.Sensors[1].Value)
	require.Equal(t, [4]uint32{20, 30, 40, 10}, r.Sensors[1].Channels)
}

func TestDecodeValuesReplySensorWidths(t *testing.T) {
	testCases := []struct {
		typ   SensorType
		width uint
	}{
		{SensorTouch, 1},
		{SensorUltrasonicCont, 8},
		{SensorUltrasonicSS, 8},
		{SensorRaw, 10},
		{SensorLightOn, 10},
		{SensorRCXLight, 10},
		{SensorColorRed, 10},
		{SensorColorNone, 10},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			value := uint32(1)<<tc.width - 1
			payload := encodeReply([2]int32{}, func(b *Bits) {
				b.Append(tc.width, value)
				b.Append(tc.width, 1)
			})
			r, err := DecodeValuesReply(payload, [2]SensorConfig{{Type: tc.typ}, {Type: tc.typ}})
			require.NoError(t, err)
			require.Equal(t, value, r.Sensors[0].Value)
			require.Equal(t, uint32(1), r.Sensors[1].Value)
		})
	}
}

func TestDecodeValuesReplyI2C(t *testing.T) {
	var i2c SensorConfig
	i2c.Type = SensorI2C
	i2c.I2C.Count = 3
	i2c.I2C.Devices[0].ReadLen = 2
	i2c.I2C.Devices[1].ReadLen = 4
	i2c.I2C.Devices[2].ReadLen = 1
	payload := encodeReply([2]int32{}, func(b *Bits) {
		b.Append(3, 5)
		b.Append(8, 0x11)
		b.Append(8, 0x22)
		b.Append(8, 0x33)
		b.Append(1, 1)
	})
	r, err := DecodeValuesReply(payload, [2]SensorConfig{i2c, {Type: SensorTouch}})
	require.NoError(t, err)
	require.Equal(t, uint32(5), r.Sensors[0].Value)
	require.Equal(t, []byte{0x11, 0x22}, r.Sensors[0].I2CIn[0][:2])
	require.Equal(t, [16]byte{}, r.Sensors[0].I2CIn[1])
	require.Equal(t, byte(0x33), r.Sensors[0].I2CIn[2][0])
	require.Equal(t, uint32(1), r.Sensors[1].Value)
}

func TestDecodeValuesReplyErrors(t *testing.T) {
	sensors := [2]SensorConfig{{Type: SensorColorFull}, {Type: SensorColorFull}}
	_, err := DecodeValuesReply([]byte{4}, sensors)
	require.ErrorIs(t, err, ErrKindMismatch)
	_, err = DecodeValuesReply([]byte{3, 0, 0}, sensors)
	require.ErrorIs(t, err, ErrKindMismatch)
}
