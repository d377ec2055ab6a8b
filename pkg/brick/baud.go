package brick

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// BaudRates is the catalog of rates a peer may run at.
var BaudRates = []int{
	2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400, 460800,
	500000, 921600, 1000000, 1500000, 2000000, 3000000,
}

// DefaultBaud is the rate of a peer after reset.
const DefaultBaud = 9600

// Bootstrap parameters.
const (
	BootstrapRounds = 5
	// BaudScanPause is the pause after a failed switch during a scan.
	BaudScanPause = 10 * time.Millisecond
)

// SetBaud switches both links from baud to newBaud. The switch is
// accepted only if TimeoutConfig is acknowledged at newBaud afterwards,
// which also covers peers already running at newBaud.
func (d *Driver) SetBaud(baud, newBaud int) error {
	var switchErr error
	for link := range d.Device.Links {
		if err := d.switchBaud(link, baud, newBaud); err != nil {
			glog.V(1).Infof("link %d baud %d -> %d: %v", link, baud, newBaud, err)
			switchErr = err
		}
	}
	if d.Line.Baud() != newBaud {
		return fmt.Errorf("baud %d -> %d: line at %d: %w", baud, newBaud, d.Line.Baud(), switchErr)
	}
	if err := d.SetTimeout(); err != nil {
		return fmt.Errorf("baud %d -> %d: %w", baud, newBaud, err)
	}
	return nil
}

func (d *Driver) switchBaud(link, baud, newBaud int) error {
	if err := d.Line.Configure(baud); err != nil {
		return err
	}
	sendErr := d.send(d.address(link), comm.BaudConfig(uint32(newBaud)))
	if err := d.Line.Configure(newBaud); err != nil {
		return err
	}
	if sendErr != nil {
		return sendErr
	}
	reply, err := d.Line.Receive(AckTimeout)
	if err != nil {
		return err
	}
	return comm.CheckEcho(comm.KindBaudConfig, reply)
}

// ForceBaud scans BaudRates for the rate the peers run at and switches
// them to baud.
func (d *Driver) ForceBaud(baud int) error {
	for _, rate := range BaudRates {
		err := d.SetBaud(rate, baud)
		if err == nil {
			return nil
		}
		glog.V(1).Infof("baud scan %d: %v", rate, err)
		d.Line.Clock.Sleep(BaudScanPause)
	}
	return fmt.Errorf("no peer found switching to baud %d: %w", baud, comm.ErrConfigRejected)
}

// Bootstrap brings both links to baud from an unknown rate.
func (d *Driver) Bootstrap(baud int) error {
	for round := 1; round <= BootstrapRounds; round++ {
		for _, from := range []int{baud, DefaultBaud, baud} {
			if d.SetBaud(from, baud) == nil {
				glog.Infof("links running at baud %d", baud)
				return nil
			}
		}
		if d.ForceBaud(baud) == nil {
			glog.Infof("links running at baud %d", baud)
			return nil
		}
		glog.Warningf("baud bootstrap round %d failed", round)
	}
	return fmt.Errorf("baud bootstrap to %d: %w", baud, comm.ErrConfigRejected)
}
