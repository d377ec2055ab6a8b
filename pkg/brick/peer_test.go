package brick

import (
	"errors"
	"time"

	"github.com/robotalks/brick.go/pkg/l0/comm"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// testPeer simulates the firmware of one microcontroller.
type testPeer struct {
	addr    byte
	baud    int
	timeout uint32
	types   [2]comm.SensorType
	// sensors and readings shape the values reply.
	sensors  [2]comm.SensorConfig
	readings [2]comm.SensorReading
	encoders [2]int32
	motors   [2]uint32
	stopped  bool

	// mute drops every request, drop drops the next n requests.
	mute bool
	drop int
	// corrupt garbles the checksum of the next n replies.
	corrupt int
	// deaf drops the next n requests of a kind, all of them if n < 0.
	deaf map[comm.Kind]int
	// requests counts received requests by kind.
	requests map[comm.Kind]int
}

func newTestPeer(addr byte, baud int) *testPeer {
	return &testPeer{
		addr:     addr,
		baud:     baud,
		requests: make(map[comm.Kind]int),
		deaf:     make(map[comm.Kind]int),
	}
}

type testReply struct {
	baud  int
	bytes []byte
}

// testBus is a comm.Transport with the peers attached.
type testBus struct {
	baud       int
	peers      []*testPeer
	replies    []testReply
	pending    []byte
	broadcasts int
	closed     bool
	// badBaud is a rate the host side fails to configure.
	badBaud int
}

func newTestBus(peers ...*testPeer) *testBus {
	return &testBus{peers: peers}
}

func (b *testBus) Configure(baud int) error {
	if baud == b.badBaud {
		return errors.New("unsupported baud")
	}
	b.baud = baud
	return nil
}

func (b *testBus) Available() (int, error) {
	for _, r := range b.replies {
		// a reply sent at another rate is noise
		if r.baud == b.baud {
			b.pending = append(b.pending, r.bytes...)
		}
	}
	b.replies = nil
	return len(b.pending), nil
}

func (b *testBus) Read(p []byte) (int, error) {
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

func (b *testBus) Flush() error {
	b.pending, b.replies = nil, nil
	return nil
}

func (b *testBus) Close() error {
	b.closed = true
	return nil
}

func (b *testBus) Write(frame []byte) (int, error) {
	if len(frame) < 3 || int(frame[2]) != len(frame)-3 || comm.Checksum(frame[3:]) != frame[1] {
		return len(frame), nil
	}
	addr, payload := frame[0], frame[3:]
	if addr == comm.BroadcastAddress {
		b.broadcasts++
	}
	for _, p := range b.peers {
		if p.baud != b.baud || (addr != p.addr && addr != comm.BroadcastAddress) {
			continue
		}
		kind := comm.Kind(payload[0])
		p.requests[kind]++
		if n := p.deaf[kind]; n != 0 {
			if n > 0 {
				p.deaf[kind] = n - 1
			}
			continue
		}
		if p.mute || p.drop > 0 {
			if p.drop > 0 {
				p.drop--
			}
			continue
		}
		reply := p.handle(payload)
		if reply == nil || addr == comm.BroadcastAddress {
			continue
		}
		bytes := comm.ComposeFrame(0, reply)[1:]
		if p.corrupt > 0 {
			p.corrupt--
			bytes[0]++
		}
		b.replies = append(b.replies, testReply{baud: p.baud, bytes: bytes})
	}
	return len(frame), nil
}

func (p *testPeer) handle(payload []byte) []byte {
	kind := comm.Kind(payload[0])
	switch kind {
	case comm.KindAddressChange:
		p.addr = payload[1]
	case comm.KindSensorTypeConfig:
		p.types[0], p.types[1] = comm.SensorType(payload[1]), comm.SensorType(payload[2])
	case comm.KindValuesExchange:
		return p.exchange(payload)
	case comm.KindEmergencyStop:
		p.stopped, p.motors = true, [2]uint32{}
	case comm.KindTimeoutConfig:
		p.timeout = uint32(payload[1]) | uint32(payload[2])<<8 | uint32(payload[3])<<16 | uint32(payload[4])<<24
	case comm.KindBaudConfig:
		p.baud = int(payload[1]) | int(payload[2])<<8 | int(payload[3])<<16
	default:
		return nil
	}
	return []byte{byte(kind)}
}

func (p *testPeer) exchange(payload []byte) []byte {
	in := comm.BitsOf(payload, 1)
	for i := range p.encoders {
		if in.Read(1) != 0 {
			width := uint(in.Read(5))
			p.encoders[i] += comm.ReadSigned(in, width+1)
		}
	}
	for i := range p.motors {
		p.motors[i] = in.Read(10)
	}

	out := comm.NewBits(1)
	var values [2]uint32
	for i, v := range p.encoders {
		mag, sign := int64(v), uint32(0)
		if mag < 0 {
			mag, sign = -mag, 1
		}
		values[i] = uint32(mag)<<1 | sign
		out.Append(5, uint32(comm.MinimumBits(values[i])))
	}
	for _, v := range values {
		out.Append(comm.MinimumBits(v), v)
	}
	for i := range p.sensors {
		appendReading(out, &p.sensors[i], &p.readings[i])
	}
	reply := out.Bytes()
	reply[0] = byte(comm.KindValuesExchange)
	return reply
}

func appendReading(b *comm.Bits, c *comm.SensorConfig, r *comm.SensorReading) {
	switch c.Type {
	case comm.SensorTouch:
		b.Append(1, r.Value)
	case comm.SensorUltrasonicCont, comm.SensorUltrasonicSS:
		b.Append(8, r.Value)
	case comm.SensorColorFull:
		b.Append(3, r.Value)
		for _, ch := range []int{comm.ColorBlank, comm.ColorRed, comm.ColorGreen, comm.ColorBlue} {
			b.Append(10, r.Channels[ch])
		}
	case comm.SensorI2C, comm.SensorI2C9V:
		count := c.I2C.DeviceCount()
		b.Append(uint(count), r.Value)
		for i := 0; i < count; i++ {
			if r.Value&(1<<uint(i)) == 0 {
				continue
			}
			for n := byte(0); n < c.I2C.Devices[i].ReadLen; n++ {
				b.Append(8, uint32(r.I2CIn[i][n]))
			}
		}
	default:
		b.Append(10, r.Value)
	}
}

func newTestDriver(peers ...*testPeer) (*Driver, *testBus) {
	bus := newTestBus(peers...)
	line := comm.NewLine(bus)
	line.Clock = &testClock{now: time.Unix(0, 0)}
	drv := NewDriver(line, NewDevice())
	drv.TargetBaud = 115200
	line.Configure(115200)
	return drv, bus
}
