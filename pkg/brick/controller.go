package brick

import (
	"github.com/robotalks/brick.go/pkg/framework"
	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// MotorMessage changes how a motor is driven.
type MotorMessage struct {
	Port   int
	Mode   MotorMode
	Speed  int
	Target int32
}

// NewMessage implements framework.Message.
func (m *MotorMessage) NewMessage() framework.Message { return &MotorMessage{} }

// OffsetMessage offsets an encoder.
type OffsetMessage struct {
	Port  int
	Delta int32
}

// NewMessage implements framework.Message.
func (m *OffsetMessage) NewMessage() framework.Message { return &OffsetMessage{} }

// SensorMessage reconfigures a sensor port.
type SensorMessage struct {
	Port   int
	Config comm.SensorConfig
}

// NewMessage implements framework.Message.
func (m *SensorMessage) NewMessage() framework.Message { return &SensorMessage{} }

// StopMessage requests an emergency stop.
type StopMessage struct{}

// NewMessage implements framework.Message.
func (m *StopMessage) NewMessage() framework.Message { return &StopMessage{} }

func validPort(port int) bool {
	return port >= 0 && port < NumPorts
}

// ProcessMessage implements framework.MessageProcessor.
func (d *Driver) ProcessMessage(mc framework.MessageProcessingContext) {
	switch msg := mc.CurrentMessage().(type) {
	case *MotorMessage:
		if validPort(msg.Port) {
			switch msg.Mode {
			case MotorSpeed:
				d.Device.SetSpeed(msg.Port, msg.Speed)
			case MotorPosition:
				d.Device.SetTarget(msg.Port, msg.Target)
			default:
				d.Device.Float(msg.Port)
			}
		}
	case *OffsetMessage:
		if validPort(msg.Port) {
			d.Device.OffsetEncoder(msg.Port, msg.Delta)
		}
	case *SensorMessage:
		if validPort(msg.Port) {
			d.Device.Sensors[msg.Port] = Sensor{SensorConfig: msg.Config}
			d.sensorsChanged[LinkOf(msg.Port)] = true
		}
	case *StopMessage:
		d.stopRequested = true
	default:
		return
	}
	mc.MessageTaken()
}

// Control implements framework.Controller. It applies the messages posted
// to the loop, then exchanges values with both links.
func (d *Driver) Control(ctx framework.ControlContext) error {
	ctx.Messages().ProcessMessages(d)
	d.lastErr = d.cycle()
	return d.lastErr
}

func (d *Driver) cycle() error {
	if d.stopRequested {
		d.stopRequested = false
		return d.EmergencyStop()
	}
	d.updateIndicators()
	var errs framework.AggregatedError
	for link := range d.Device.Links {
		// the values layout follows the sensor setup, so a link is
		// not exchanged until its peer confirmed the new setup.
		if d.sensorsChanged[link] {
			if err := d.SetupLinkSensors(link); err != nil {
				errs.Add(err)
				continue
			}
			d.sensorsChanged[link] = false
		}
		errs.Add(d.UpdateLink(link))
	}
	return errs.Aggregate()
}

// Stop implements framework.Stopper. It stops the motors and releases
// the transport.
func (d *Driver) Stop() error {
	var errs framework.AggregatedError
	errs.Add(d.EmergencyStop())
	errs.Add(d.Line.Transport.Close())
	for id := range d.Device.LEDs {
		d.indicate(id, false)
	}
	return errs.Aggregate()
}
