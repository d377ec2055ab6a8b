// Package sh provides the interactive shell operating brick hosts over
// MQTT.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	fx "github.com/robotalks/brick.go/pkg/framework"
	"github.com/robotalks/brick.go/pkg/l1"
	l1comm "github.com/robotalks/brick.go/pkg/l1/comm"
	"github.com/robotalks/brick.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/brick.go/pkg/l1/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	DefaultID   string

	Shell *ishell.Shell
	Queue *mqtt.Queue
	Conn  *Conn
}

// Conn is the connection to a brick host.
type Conn struct {
	Ref    l1.Ref
	Cancel func()
	Writer l1comm.PacketWriter

	lock  sync.Mutex
	state *msgs.DeviceState
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	discoverWait      = time.Second
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	mqttURL    = "mqtt://localhost:1883/brick"
	hostID     string

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&StateCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	if val := os.Getenv("BRICK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&hostID, "id", hostID, "Host ID to connect on start.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(q *mqtt.Queue) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		DefaultID:   hostID,

		Shell: ishell.New(),
		Queue: q,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// State returns the latest DeviceState received, nil if none yet.
func (c *Conn) State() *msgs.DeviceState {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// HandleState decodes a published state packet.
func (c *Conn) HandleState(pkt []byte) error {
	msg, err := msgs.DecodePacket(pkt)
	if err != nil {
		return err
	}
	state, ok := msg.(*msgs.DeviceState)
	if !ok {
		return fmt.Errorf("unexpected %T on state topic", msg)
	}
	c.lock.Lock()
	c.state = state
	c.lock.Unlock()
	return nil
}

// Send sends a command to the host.
func (c *Conn) Send(msg fx.Message) error {
	pkt, err := msgs.EncodePacket(msg)
	if err != nil {
		return err
	}
	return c.Writer.WritePacket(pkt)
}

// DoCommand sends a command. Commands are not acknowledged, the effect
// shows in the published state.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	if err := s.Conn.Send(msg); err != nil {
		c.Err(err)
		return err
	}
	if s.OutputJSON {
		c.Println(`{"sent":true}`)
		return nil
	}
	c.Println("OK")
	return nil
}

// Print prints a message in the configured format.
func (s *Shell) Print(c *ishell.Context, msg msgs.SerializableMessage) {
	if s.OutputJSON {
		out, err := json.Marshal(msg.Serializable())
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(msg.Serializable().String())
}

// Discover collects the IDs of hosts publishing state.
func (s *Shell) Discover(wait time.Duration) []string {
	var lock sync.Mutex
	found := make(map[string]struct{})
	sub := s.Queue.Sub(l1.DefaultType+"/+/state", func(topic string, _ []byte) {
		if tokens := strings.Split(topic, "/"); len(tokens) == 3 {
			lock.Lock()
			found[tokens[1]] = struct{}{}
			lock.Unlock()
		}
	})
	time.Sleep(wait)
	sub.Close()

	lock.Lock()
	defer lock.Unlock()
	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Connect connects the host with ref.
func (s *Shell) Connect(ref l1.Ref) {
	s.Disconnect()
	rw := mqtt.NewPacketReadWriter(s.Queue).ForOperator(ref)
	conn := &Conn{Ref: ref, Writer: rw}
	var ctx context.Context
	ctx, conn.Cancel = context.WithCancel(context.Background())
	go rw.Run(ctx)
	go func() {
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				return
			}
			if err := conn.HandleState(pkt); err != nil {
				glog.Warningf("%s: %v", ref.Name(), err)
			}
		}
	}()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
}

// Disconnect disconnects current host.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.DefaultID != "" {
		s.Connect(l1.Ref{Type: l1.DefaultType, ID: s.DefaultID})
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers hosts.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ids := s.Discover(discoverWait)
			if s.OutputJSON {
				out, err := json.Marshal(ids)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(ids) == 0 {
				c.Println("No hosts found")
				return
			}
			for _, id := range ids {
				c.Println(l1.Ref{Type: l1.DefaultType, ID: id}.Name())
			}
		},
	}

	// ConnectCmd connects a host.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ref := l1.Ref{Type: l1.DefaultType}
			if len(c.Args) > 0 {
				ref.ID = c.Args[0]
			} else {
				ids := s.Discover(discoverWait)
				switch {
				case len(ids) == 0:
					c.Err(fmt.Errorf("no host discovered"))
					return
				case len(ids) == 1:
					ref.ID = ids[0]
				case !s.Interactive:
					c.Err(fmt.Errorf("more than 1 hosts discovered in non-interactive mode"))
					return
				default:
					ref.ID = ids[s.Shell.MultiChoice(ids, "Which one to connect?")]
				}
			}
			s.Connect(ref)
		},
	}

	// DisconnectCmd disconnects current host.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// StateCmd prints the latest device state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			state := s.Conn.State()
			if state == nil {
				c.Err(fmt.Errorf("no state received"))
				return
			}
			s.Print(c, state)
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()
	New(q).Run(flag.Args()...)
}
