// Package bridge connects a brick Driver in a framework.Loop to L1
// observers and operators.
package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/brick.go/pkg/brick"
	fx "github.com/robotalks/brick.go/pkg/framework"
	"github.com/robotalks/brick.go/pkg/l0/comm"
	l1comm "github.com/robotalks/brick.go/pkg/l1/comm"
	"github.com/robotalks/brick.go/pkg/l1/msgs"
)

// Bridge publishes DeviceState to Writers after exchanges and turns
// commands read from Readers into loop messages for the Driver. It must
// be added to the loop at a lower priority than the Driver.
type Bridge struct {
	Driver  *brick.Driver
	Writers l1comm.PacketWriters
	Readers []l1comm.PacketReader
	// Every publishes once per Every iterations, 0 means every iteration.
	Every int

	iterations int
	seq        uint64
}

// New creates a Bridge.
func New(drv *brick.Driver) *Bridge {
	return &Bridge{Driver: drv}
}

// Name implements fx.Named.
func (b *Bridge) Name() string {
	return "bridge"
}

// Control implements fx.Controller.
func (b *Bridge) Control(ctx fx.ControlContext) error {
	b.iterations++
	if b.Every > 1 && b.iterations%b.Every != 0 {
		return nil
	}
	if len(b.Writers) == 0 {
		return nil
	}
	b.seq++
	pkt, err := msgs.EncodePacket(Snapshot(b.Driver.Device, b.seq, b.Driver.LastError()))
	if err != nil {
		return err
	}
	if err := b.Writers.WritePacket(pkt); err != nil {
		glog.V(1).Infof("publish state: %v", err)
	}
	return nil
}

// Run implements fx.Runnable. It reads commands until ctx is done and
// all Readers failed, so Readers must fail once ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	return b.runWith(ctx, fx.LoopCtlFrom(ctx))
}

func (b *Bridge) runWith(ctx context.Context, loopCtl fx.LoopControl) error {
	var wg sync.WaitGroup
	for _, r := range b.Readers {
		wg.Add(1)
		go func(r l1comm.PacketReader) {
			defer wg.Done()
			b.readCommands(r, loopCtl)
		}(r)
	}
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (b *Bridge) readCommands(r l1comm.PacketReader, loopCtl fx.LoopControl) {
	for {
		pkt, err := r.ReadPacket()
		if err != nil {
			glog.V(1).Infof("command reader stopped: %v", err)
			return
		}
		msg, err := msgs.DecodePacket(pkt)
		if err == nil {
			msg, err = Command(msg)
		}
		if err != nil {
			glog.Warningf("invalid command: %v", err)
			continue
		}
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
	}
}

// Command converts an L1 command to the loop message of the Driver.
func Command(msg fx.Message) (fx.Message, error) {
	switch m := msg.(type) {
	case *msgs.MotorSet:
		mode, err := brick.ParseMotorMode(m.Mode)
		if err != nil {
			return nil, err
		}
		return &brick.MotorMessage{Port: int(m.Port), Mode: mode, Speed: int(m.Speed), Target: m.Target}, nil
	case *msgs.EncoderOffset:
		return &brick.OffsetMessage{Port: int(m.Port), Delta: m.Delta}, nil
	case *msgs.EmergencyStop:
		return &brick.StopMessage{}, nil
	}
	return nil, fmt.Errorf("unsupported command %T", msg)
}

// Snapshot captures the device state.
func Snapshot(dev *brick.Device, seq uint64, err error) *msgs.DeviceState {
	state := &msgs.DeviceState{Seq: seq, Ports: make([]*msgs.PortState, brick.NumPorts)}
	for port := range state.Ports {
		m, e, s := &dev.Motors[port], &dev.Encoders[port], &dev.Sensors[port]
		ps := &msgs.PortState{
			Port:         int32(port),
			MotorMode:    m.Mode.String(),
			Speed:        int32(m.Speed),
			Target:       m.Target,
			Encoder:      e.Value,
			PendingDelta: e.Offset,
			SensorType:   s.Type.String(),
			SensorValue:  s.Value,
		}
		switch {
		case s.Type == comm.SensorColorFull:
			ps.Channels = append([]uint32(nil), s.Channels[:]...)
		case s.Type.IsI2C():
			for i := 0; i < s.I2C.DeviceCount(); i++ {
				n := int(s.I2C.Devices[i].ReadLen)
				if n > comm.MaxI2CTransfer {
					n = comm.MaxI2CTransfer
				}
				ps.I2CIn = append(ps.I2CIn, append([]byte(nil), s.I2CIn[i][:n]...))
			}
		}
		state.Ports[port] = ps
	}
	if err != nil {
		if agg, ok := err.(*fx.AggregatedError); ok {
			for _, e := range agg.Errors {
				state.Errors = append(state.Errors, e.Error())
			}
		} else {
			state.Errors = []string{err.Error()}
		}
	}
	return state
}
