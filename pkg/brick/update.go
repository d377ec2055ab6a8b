package brick

import (
	"github.com/golang/glog"

	"github.com/robotalks/brick.go/pkg/framework"
	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// Update exchanges values with both links. A failing link doesn't affect
// the other one; the returned error aggregates *LinkError of all failed
// links.
func (d *Driver) Update() error {
	d.updateIndicators()
	var errs framework.AggregatedError
	for link := range d.Device.Links {
		errs.Add(d.UpdateLink(link))
	}
	return errs.Aggregate()
}

// UpdateLink exchanges values with a single link, retrying failed
// attempts. Pending encoder offsets of the link are cleared when the
// exchange succeeds, and after a failed attempt the peer may have
// received unless KeepOffsetsOnAmbiguous is set.
func (d *Driver) UpdateLink(link int) error {
	attempts := d.Retries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var reply *comm.ValuesReply
		if reply, err = d.exchangeValues(link); err == nil {
			d.Device.clearOffsets(link)
			d.Device.applyValues(link, reply)
			return nil
		}
		if comm.Delivered(err) && !d.KeepOffsetsOnAmbiguous {
			d.Device.clearOffsets(link)
		}
		glog.V(1).Infof("link %d attempt %d: %v", link, attempt, err)
	}
	glog.Warningf("link %d exchange failed: %v", link, err)
	return &LinkError{Link: link, Attempts: attempts, Err: err}
}

func (d *Driver) exchangeValues(link int) (*comm.ValuesReply, error) {
	req := d.Device.valuesRequest(link)
	if err := d.send(d.address(link), req.Encode()); err != nil {
		return nil, err
	}
	d.Line.Clock.Sleep(Turnaround)
	payload, err := d.Line.Receive(ValuesTimeout)
	if err != nil {
		return nil, err
	}
	return comm.DecodeValuesReply(payload, req.Sensors)
}
