package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"net/http"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/brick.go/pkg/config"
	fx "github.com/robotalks/brick.go/pkg/framework"
	"github.com/robotalks/brick.go/pkg/l1/bridge"
	"github.com/robotalks/brick.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/brick.go/pkg/l1/comm/stream"
	"github.com/robotalks/brick.go/pkg/l1/comm/websocket"
	"github.com/robotalks/brick.go/pkg/l1/env"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := config.Default()
	if err := conf.Load(); err != nil {
		glog.Exitf("config: %v", err)
	}
	drv, err := conf.NewDriver()
	if err != nil {
		glog.Exitf("open: %v", err)
	}
	if err := drv.Setup(); err != nil {
		glog.Exitf("setup: %v", err)
	}
	if err := drv.SetupSensors(); err != nil {
		glog.Warningf("sensor setup: %v", err)
	}
	glog.Infof("brick ready at %d baud", drv.Line.Baud())

	loop := fx.NewLoop()
	loop.Interval = conf.Interval
	br := bridge.New(drv)
	loop.AddController(fx.PrLvExchange, drv)
	loop.AddController(fx.PrLvPublish, br)

	if conf.MQTTURL != "" {
		ref, err := env.DefaultRef(conf.ID)
		if err != nil {
			glog.Exitf("host id: %v", err)
		}
		q, err := mqtt.NewQueueFromURL(conf.MQTTURL)
		if err != nil {
			glog.Exitf("mqtt: %v", err)
		}
		if err := q.Connect(); err != nil {
			glog.Exitf("mqtt: %v", err)
		}
		defer q.Close()
		rw := mqtt.NewPacketReadWriter(q).ForHost(ref)
		br.Writers, br.Readers = append(br.Writers, rw), append(br.Readers, rw)
		loop.AddRunnable(rw)
		glog.Infof("publishing %s", ref.StateTopic())
	}

	if conf.Listen != "" {
		hub := websocket.NewHub()
		br.Writers, br.Readers = append(br.Writers, hub), append(br.Readers, hub)
		loop.AddRunnable(hub)
		go func() {
			if err := http.ListenAndServe(conf.Listen, hub.Handler()); err != nil {
				glog.Errorf("websocket: %v", err)
			}
		}()
	}

	if conf.Record != "" {
		f, err := os.Create(conf.Record)
		if err != nil {
			glog.Exitf("record: %v", err)
		}
		defer f.Close()
		br.Writers = append(br.Writers, stream.New(f))
	}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(loop)
	if err := runner.Wait(); err != nil {
		glog.Errorf("%v", err)
	}
}
