package brick

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/brick.go/pkg/indicator"
	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// Timing of the L0 exchanges.
const (
	// AckTimeout bounds the wait for the echo of a short request.
	AckTimeout = 5 * time.Millisecond
	// SensorSetupTimeout bounds the wait for the SensorTypeConfig echo.
	SensorSetupTimeout = time.Second
	// ValuesTimeout bounds the wait for a values reply.
	ValuesTimeout = 25 * time.Millisecond
	// Turnaround is the pause between a values request and polling for
	// the reply.
	Turnaround = 500 * time.Microsecond
)

// DefaultRetries is the number of retries of a values exchange.
const DefaultRetries = 4

// Driver runs the L0 protocol for a Device over a Line.
type Driver struct {
	Line      *comm.Line
	Device    *Device
	Indicator indicator.Output
	// TargetBaud is the operating baud rate Setup negotiates.
	TargetBaud int
	// Retries is the number of extra attempts of a values exchange.
	Retries int
	// KeepOffsetsOnAmbiguous keeps pending encoder offsets after a failed
	// exchange the peer may have received, clearing them only when an
	// exchange succeeds.
	KeepOffsetsOnAmbiguous bool

	lastErr       error
	stopRequested bool
	// sensorsChanged marks links whose sensor setup is pending.
	sensorsChanged [NumLinks]bool
}

// NewDriver creates a Driver.
func NewDriver(line *comm.Line, dev *Device) *Driver {
	return &Driver{
		Line:       line,
		Device:     dev,
		Indicator:  indicator.Nop{},
		TargetBaud: DefaultBaud,
		Retries:    DefaultRetries,
	}
}

// LastError returns the result of the last Control.
func (d *Driver) LastError() error {
	return d.lastErr
}

func (d *Driver) address(link int) byte {
	return d.Device.Links[link].Address
}

func (d *Driver) indicate(id int, level bool) {
	if d.Indicator == nil {
		return
	}
	if err := d.Indicator.SetOutput(id, level); err != nil {
		glog.V(1).Infof("indicator %d: %v", id, err)
	}
}

func (d *Driver) updateIndicators() {
	for id, level := range d.Device.LEDs {
		d.indicate(id, level)
	}
}

// send transmits a frame with LED1 lit.
func (d *Driver) send(addr byte, payload []byte) error {
	d.indicate(indicator.LED1, true)
	err := d.Line.Send(addr, payload)
	d.indicate(indicator.LED1, false)
	return err
}

// request transmits a frame and waits for its echo, with LED1 lit.
func (d *Driver) request(addr byte, payload []byte, timeout time.Duration) error {
	d.indicate(indicator.LED1, true)
	_, err := d.Line.Request(addr, payload, timeout)
	d.indicate(indicator.LED1, false)
	return err
}

// configure sends a configuration request and requires its echo.
func (d *Driver) configure(addr byte, payload []byte, timeout time.Duration) error {
	if err := d.request(addr, payload, timeout); err != nil {
		return &ConfigError{Address: addr, Kind: comm.Kind(payload[0]), Err: err}
	}
	return nil
}
