package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/robotalks/brick.go/pkg/brick"
	"github.com/robotalks/brick.go/pkg/config"
	"github.com/robotalks/brick.go/pkg/l1/bridge"
	"github.com/robotalks/brick.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/brick.go/pkg/l1/comm/stream"
	"github.com/robotalks/brick.go/pkg/l1/comm/websocket"
	"github.com/robotalks/brick.go/pkg/l1/msgs"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "serial",
		Usage:  "Serial device, empty for the board default",
		EnvVar: "BRICK_SERIAL",
	},
	cli.StringFlag{
		Name:   "board",
		Value:  "bbb",
		Usage:  "Host board: bbb, rpi or none",
		EnvVar: "BRICK_BOARD",
	},
	cli.IntFlag{
		Name:   "baud",
		Usage:  "Operating baud rate, 0 for the board default",
		EnvVar: "BRICK_BAUD",
	},
	cli.StringFlag{
		Name:  "profile",
		Value: config.DefaultProfile,
		Usage: "Hardware profile",
	},
}

var commands = []cli.Command{
	{
		Name:   "setup",
		Usage:  "Negotiate the operating baud rate and configure the peers",
		Action: setupCommand,
	},
	{
		Name:  "estop",
		Usage: "Stop all motors",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "at",
				Usage: "Baud rate the peers run at, 0 for the operating baud rate",
			},
		},
		Action: estopCommand,
	},
	{
		Name:      "baud",
		Usage:     "Move the peers to a baud rate",
		ArgsUsage: "<rate>",
		Action:    baudCommand,
	},
	{
		Name:      "address",
		Usage:     "Change the address of a peer",
		ArgsUsage: "<address> <new-address>",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "at",
				Value: brick.DefaultBaud,
				Usage: "Baud rate the peer runs at",
			},
		},
		Action: addressCommand,
	},
	{
		Name:  "update",
		Usage: "Run values exchanges and print the device state",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "count, n",
				Value: 1,
				Usage: "Number of exchanges",
			},
			cli.DurationFlag{
				Name:  "interval, i",
				Value: 100 * time.Millisecond,
				Usage: "Pause between exchanges",
			},
		},
		Action: updateCommand,
	},
	{
		Name:      "replay",
		Usage:     "Print the device states of a recording",
		ArgsUsage: "<file>",
		Action:    replayCommand,
	},
	{
		Name:      "monitor",
		Usage:     "Print the device states published on MQTT or by a websocket endpoint",
		ArgsUsage: "<mqtt-url|ws-url>",
		Action:    monitorCommand,
	},
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	conf := config.NewConfig()
	conf.Profile = ctx.GlobalString("profile")
	if err := conf.Load(); err != nil {
		return nil, err
	}
	if ctx.GlobalIsSet("serial") {
		conf.Serial = ctx.GlobalString("serial")
	}
	if ctx.GlobalIsSet("board") {
		conf.Board = ctx.GlobalString("board")
	}
	if ctx.GlobalIsSet("baud") {
		conf.Baud = ctx.GlobalInt("baud")
	}
	return conf, nil
}

func openDriver(ctx *cli.Context) (*brick.Driver, error) {
	conf, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return conf.NewDriver()
}

func openDriverAt(ctx *cli.Context, baud int) (*brick.Driver, error) {
	drv, err := openDriver(ctx)
	if err != nil {
		return nil, err
	}
	if baud <= 0 {
		baud = drv.TargetBaud
	}
	if err := drv.Line.Configure(baud); err != nil {
		drv.Line.Transport.Close()
		return nil, err
	}
	return drv, nil
}

func setupCommand(ctx *cli.Context) error {
	drv, err := openDriver(ctx)
	if err != nil {
		return err
	}
	defer drv.Line.Transport.Close()
	if err := drv.Setup(); err != nil {
		return err
	}
	if err := drv.SetupSensors(); err != nil {
		return err
	}
	fmt.Printf("ready at %d baud\n", drv.Line.Baud())
	return nil
}

func estopCommand(ctx *cli.Context) error {
	drv, err := openDriverAt(ctx, ctx.Int("at"))
	if err != nil {
		return err
	}
	defer drv.Line.Transport.Close()
	return drv.EmergencyStop()
}

func baudCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("rate required", 2)
	}
	rate, err := strconv.Atoi(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("invalid rate: %w", err)
	}
	drv, err := openDriver(ctx)
	if err != nil {
		return err
	}
	defer drv.Line.Transport.Close()
	return drv.Bootstrap(rate)
}

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return byte(v), nil
}

func addressCommand(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError("address and new address required", 2)
	}
	addr, err := parseAddress(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	newAddr, err := parseAddress(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	drv, err := openDriverAt(ctx, ctx.Int("at"))
	if err != nil {
		return err
	}
	defer drv.Line.Transport.Close()
	return drv.ChangeAddress(addr, newAddr)
}

func updateCommand(ctx *cli.Context) error {
	drv, err := openDriver(ctx)
	if err != nil {
		return err
	}
	defer drv.Line.Transport.Close()
	if err := drv.Setup(); err != nil {
		return err
	}
	if err := drv.SetupSensors(); err != nil {
		return err
	}
	for n := 1; n <= ctx.Int("count"); n++ {
		if n > 1 {
			time.Sleep(ctx.Duration("interval"))
		}
		err := drv.Update()
		fmt.Println(bridge.Snapshot(drv.Device, uint64(n), err).String())
	}
	return nil
}

func replayCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("file required", 2)
	}
	f, err := os.Open(ctx.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.New(f)
	for {
		pkt, err := r.ReadPacket()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		msg, err := msgs.DecodePacket(pkt)
		if err != nil {
			return err
		}
		printMessage("", msg)
	}
}

func monitorCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("URL required", 2)
	}
	serverURL := ctx.Args().First()
	if strings.HasPrefix(serverURL, "ws://") || strings.HasPrefix(serverURL, "wss://") {
		return monitorWebsocket(serverURL)
	}
	q, err := mqtt.NewQueueFromURL(serverURL)
	if err != nil {
		return err
	}
	if err := q.Connect(); err != nil {
		return err
	}
	defer q.Close()
	q.Sub("+/+/state", func(topic string, payload []byte) {
		msg, err := msgs.DecodePacket(payload)
		if err != nil {
			fmt.Printf("%s: bad message: %v\n", topic, err)
			return
		}
		printMessage(topic+": ", msg)
	})
	<-(chan struct{})(nil)
	return nil
}

func monitorWebsocket(serverURL string) error {
	conn, err := websocket.Dial(serverURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	for {
		pkt, err := conn.ReadPacket()
		if err != nil {
			return err
		}
		msg, err := msgs.DecodePacket(pkt)
		if err != nil {
			fmt.Printf("bad message: %v\n", err)
			continue
		}
		printMessage("", msg)
	}
}

func printMessage(prefix string, msg interface{}) {
	if sm, ok := msg.(msgs.SerializableMessage); ok {
		fmt.Printf("%s%T %s\n", prefix, msg, sm.Serializable().String())
		return
	}
	fmt.Printf("%s%T\n", prefix, msg)
}
