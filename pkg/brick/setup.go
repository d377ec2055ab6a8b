package brick

import (
	"fmt"
	"time"

	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// SetupSensors configures the sensor ports of both links. It must be
// called whenever a sensor type or I2C sub-bus changes, before the next
// Update.
func (d *Driver) SetupSensors() error {
	for link := range d.Device.Links {
		if err := d.SetupLinkSensors(link); err != nil {
			return err
		}
	}
	return nil
}

// SetupLinkSensors configures the sensor ports of a single link.
func (d *Driver) SetupLinkSensors(link int) error {
	payload := comm.SensorTypeConfig(d.Device.SensorConfigs(link))
	return d.configure(d.address(link), payload, SensorSetupTimeout)
}

// ChangeAddress moves the peer at addr to newAddr. The link using addr
// follows the peer.
func (d *Driver) ChangeAddress(addr, newAddr byte) error {
	if newAddr == comm.BroadcastAddress {
		return fmt.Errorf("address %d is reserved for broadcast", newAddr)
	}
	if err := d.configure(addr, comm.AddressChange(newAddr), AckTimeout); err != nil {
		return err
	}
	for i := range d.Device.Links {
		if d.Device.Links[i].Address == addr {
			d.Device.Links[i].Address = newAddr
		}
	}
	return nil
}

// SetTimeout sends the communication timeout of each link to its peer.
func (d *Driver) SetTimeout() error {
	for link, l := range d.Device.Links {
		ms := uint32(l.Timeout / time.Millisecond)
		if err := d.configure(d.address(link), comm.TimeoutConfig(ms), AckTimeout); err != nil {
			return err
		}
	}
	return nil
}

// Setup brings both links to TargetBaud and configures their timeouts.
func (d *Driver) Setup() error {
	if err := d.Bootstrap(d.TargetBaud); err != nil {
		return err
	}
	return d.SetTimeout()
}
