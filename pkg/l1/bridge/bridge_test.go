package bridge

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brick.go/pkg/brick"
	fx "github.com/robotalks/brick.go/pkg/framework"
	"github.com/robotalks/brick.go/pkg/l0/comm"
	"github.com/robotalks/brick.go/pkg/l1/msgs"
)

type chanReadWriter struct {
	in      chan []byte
	written [][]byte
}

func (c *chanReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-c.in
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

func (c *chanReadWriter) WritePacket(pkt []byte) error {
	c.written = append(c.written, pkt)
	return nil
}

type testLoopCtl struct {
	msgs    chan fx.Message
	trigger int
}

func (c *testLoopCtl) PostMessage(msg fx.Message) { c.msgs <- msg }
func (c *testLoopCtl) TriggerNext()               { c.trigger++ }

func TestCommand(t *testing.T) {
	msg, err := Command(&msgs.MotorSet{Port: 2, Mode: msgs.ModePosition, Target: -90})
	require.NoError(t, err)
	require.Equal(t, &brick.MotorMessage{Port: 2, Mode: brick.MotorPosition, Target: -90}, msg)
	msg, err = Command(&msgs.EncoderOffset{Port: 1, Delta: 5})
	require.NoError(t, err)
	require.Equal(t, &brick.OffsetMessage{Port: 1, Delta: 5}, msg)
	msg, err = Command(&msgs.EmergencyStop{})
	require.NoError(t, err)
	require.Equal(t, &brick.StopMessage{}, msg)

	_, err = Command(&msgs.MotorSet{Mode: "brake"})
	require.Error(t, err)
	_, err = Command(&msgs.DeviceState{})
	require.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	dev := brick.NewDevice()
	dev.SetSpeed(brick.PortA, -100)
	dev.Encoders[brick.PortA].Value = 720
	dev.OffsetEncoder(brick.PortB, 3)
	dev.Sensors[brick.Port3].Type = comm.SensorColorFull
	dev.Sensors[brick.Port3].Channels = [4]uint32{1, 2, 3, 4}
	dev.Sensors[brick.Port4].Type = comm.SensorI2C
	dev.Sensors[brick.Port4].I2C.Count = 2
	dev.Sensors[brick.Port4].I2C.Devices[0].ReadLen = 2
	dev.Sensors[brick.Port4].I2CIn[0] = [16]byte{7, 8, 9}

	var errs fx.AggregatedError
	errs.Add(errors.New("link 0"), errors.New("link 1"))
	state := Snapshot(dev, 9, errs.Aggregate())
	require.Equal(t, uint64(9), state.Seq)
	require.Len(t, state.Ports, brick.NumPorts)
	require.Equal(t, msgs.ModeSpeed, state.Ports[0].MotorMode)
	require.Equal(t, int32(-100), state.Ports[0].Speed)
	require.Equal(t, int32(720), state.Ports[0].Encoder)
	require.Equal(t, int32(3), state.Ports[1].PendingDelta)
	require.Equal(t, "raw", state.Ports[1].SensorType)
	require.Equal(t, []uint32{1, 2, 3, 4}, state.Ports[2].Channels)
	require.Equal(t, [][]byte{{7, 8}, nil}, state.Ports[3].I2CIn)
	require.Equal(t, []string{"link 0", "link 1"}, state.Errors)

	require.Equal(t, []string{"x"}, Snapshot(dev, 1, errors.New("x")).Errors)

	dev.Sensors[brick.Port4].I2C.Devices[1].ReadLen = comm.MaxI2CBytes
	state = Snapshot(dev, 10, nil)
	require.Len(t, state.Ports[3].I2CIn[1], comm.MaxI2CTransfer)
}

func TestBridgePublish(t *testing.T) {
	drv := brick.NewDriver(comm.NewLine(nil), brick.NewDevice())
	rw := &chanReadWriter{}
	b := New(drv)
	b.Writers = append(b.Writers, rw)
	b.Every = 2
	loop := fx.NewLoop()
	loop.AddController(fx.PrLvPublish, b)
	for i := 0; i < 4; i++ {
		loop.RunOnce(context.Background())
	}
	require.Len(t, rw.written, 2)
	msg, err := msgs.DecodePacket(rw.written[1])
	require.NoError(t, err)
	require.Equal(t, uint64(2), msg.(*msgs.DeviceState).Seq)
}

func TestBridgeCommands(t *testing.T) {
	rw := &chanReadWriter{in: make(chan []byte, 4)}
	b := New(nil)
	b.Readers = append(b.Readers, rw)
	loopCtl := &testLoopCtl{msgs: make(chan fx.Message, 4)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.runWith(ctx, loopCtl) }()

	pkt, err := msgs.EncodePacket(&msgs.MotorSet{Port: 1, Mode: msgs.ModeSpeed, Speed: 42})
	require.NoError(t, err)
	rw.in <- []byte{0xff}
	rw.in <- pkt
	select {
	case msg := <-loopCtl.msgs:
		require.Equal(t, &brick.MotorMessage{Port: 1, Mode: brick.MotorSpeed, Speed: 42}, msg)
	case <-time.After(time.Second):
		t.Fatal("command not posted")
	}
	close(rw.in)
	cancel()
	require.Equal(t, context.Canceled, <-done)
	require.Equal(t, 1, loopCtl.trigger)
}
