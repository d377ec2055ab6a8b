package brick

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// Emergency stop parameters.
const (
	StopRounds            = 3
	StopBroadcasts        = 3
	StopBroadcastInterval = 5 * time.Millisecond
)

// EmergencyStop floats all motors of both peers. Each link is asked up to
// StopRounds times until it acknowledges. If any link never does, the
// stop is broadcast StopBroadcasts times and ErrStopUnconfirmed is
// returned even though the peers probably stopped.
func (d *Driver) EmergencyStop() error {
	d.Device.FloatAll()
	var confirmed [NumLinks]bool
	for round := 1; round <= StopRounds; round++ {
		done := true
		for link := range confirmed {
			if confirmed[link] {
				continue
			}
			if err := d.request(d.address(link), comm.EmergencyStop(), AckTimeout); err != nil {
				glog.V(1).Infof("link %d emergency stop round %d: %v", link, round, err)
				done = false
				continue
			}
			confirmed[link] = true
		}
		if done {
			return nil
		}
	}
	glog.Warningf("emergency stop unconfirmed %v, broadcasting", confirmed)
	for i := 0; i < StopBroadcasts; i++ {
		if err := d.send(comm.BroadcastAddress, comm.EmergencyStop()); err != nil {
			glog.Errorf("emergency stop broadcast: %v", err)
		}
		d.Line.Clock.Sleep(StopBroadcastInterval)
	}
	return ErrStopUnconfirmed
}
