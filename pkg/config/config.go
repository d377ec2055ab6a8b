// Package config loads the host configuration and the hardware profile
// of a brick.
package config

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"

	"github.com/robotalks/brick.go/pkg/brick"
	"github.com/robotalks/brick.go/pkg/indicator"
	"github.com/robotalks/brick.go/pkg/l0/comm"
	"github.com/robotalks/brick.go/pkg/l0/serial"
)

// DefaultProfile is the location of the hardware profile.
const DefaultProfile = "~/.brick.yaml"

// Config defines the configurations of the host.
type Config struct {
	Serial      string        `env:"BRICK_SERIAL" yaml:"serial"`
	Board       string        `env:"BRICK_BOARD" yaml:"board"`
	Baud        int           `env:"BRICK_BAUD" yaml:"baud"`
	Interval    time.Duration `env:"BRICK_INTERVAL" yaml:"interval"`
	KeepOffsets bool          `env:"BRICK_KEEP_OFFSETS" yaml:"keep_offsets"`
	MQTTURL     string        `env:"BRICK_MQTT_URL" yaml:"mqtt"`
	Listen      string        `env:"BRICK_LISTEN" yaml:"listen"`
	ID          string        `env:"BRICK_ID" yaml:"id"`
	Record      string        `env:"BRICK_RECORD" yaml:"record"`
	Profile     string        `env:"BRICK_PROFILE" yaml:"-"`

	Links   []LinkProfile            `yaml:"links"`
	Motors  map[string]MotorProfile  `yaml:"motors"`
	Sensors map[string]SensorProfile `yaml:"sensors"`
}

// LinkProfile configures a link.
type LinkProfile struct {
	Address byte          `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

// MotorProfile overrides the regulator of a motor port.
type MotorProfile struct {
	KP   *float64 `yaml:"kp"`
	KD   *float64 `yaml:"kd"`
	Dead *float64 `yaml:"dead"`
}

// SensorProfile configures a sensor port.
type SensorProfile struct {
	Type    string             `yaml:"type"`
	Speed   byte               `yaml:"speed"`
	Devices []I2CDeviceProfile `yaml:"devices"`
}

// I2CDeviceProfile configures a device on an I2C sub-bus.
type I2CDeviceProfile struct {
	Addr  byte   `yaml:"addr"`
	Mid   bool   `yaml:"mid"`
	Same  bool   `yaml:"same"`
	Write []byte `yaml:"write,flow"`
	Read  byte   `yaml:"read"`
}

var defaultConfig = Config{
	Board:    indicator.BoardBBB,
	Interval: 20 * time.Millisecond,
	Profile:  DefaultProfile,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Serial, "serial", defaultConfig.Serial, "Serial device, empty for the board default.")
	flag.StringVar(&defaultConfig.Board, "board", defaultConfig.Board, "Host board: bbb, rpi or none.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Operating baud rate, 0 for the board default.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Control loop interval.")
	flag.BoolVar(&defaultConfig.KeepOffsets, "keep-offsets", defaultConfig.KeepOffsets, "Keep encoder offsets until an exchange succeeds.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL for telemetry.")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Address serving the websocket telemetry stream.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Host ID on the L1 network, empty for the machine ID.")
	flag.StringVar(&defaultConfig.Record, "record", defaultConfig.Record, "File recording the published device state.")
	flag.StringVar(&defaultConfig.Profile, "profile", defaultConfig.Profile, "Hardware profile.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads the hardware profile, then applies environment overrides.
// A missing profile at the default location is not an error.
func (c *Config) Load() error {
	if c.Profile != "" {
		if err := c.LoadProfile(c.Profile); err != nil {
			if !os.IsNotExist(err) || c.Profile != DefaultProfile {
				return err
			}
		}
	}
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// LoadProfile reads a YAML profile into c.
func (c *Config) LoadProfile(path string) error {
	fn, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return err
	}
	return c.ParseProfile(data)
}

// ParseProfile parses a YAML profile into c.
func (c *Config) ParseProfile(data []byte) error {
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}

// SerialPath returns the serial device.
func (c *Config) SerialPath() string {
	if c.Serial != "" {
		return c.Serial
	}
	if c.Board == indicator.BoardRPi {
		return "/dev/ttyAMA0"
	}
	return "/dev/ttyO4"
}

// TargetBaud returns the operating baud rate.
func (c *Config) TargetBaud() int {
	switch {
	case c.Baud > 0:
		return c.Baud
	case c.Board == indicator.BoardRPi:
		return 500000
	}
	return 115200
}

// NewIndicator creates the indicator outputs of the board.
func (c *Config) NewIndicator() (indicator.Output, error) {
	return indicator.New(c.Board)
}

// NewDriver opens the serial line at DefaultBaud and creates a Driver
// for a Device with the profile applied. The Driver still needs Setup.
func (c *Config) NewDriver() (*brick.Driver, error) {
	dev := brick.NewDevice()
	if err := c.Apply(dev); err != nil {
		return nil, err
	}
	out, err := c.NewIndicator()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(c.SerialPath(), brick.DefaultBaud)
	if err != nil {
		if port != nil {
			port.Close()
		}
		return nil, err
	}
	line := comm.NewLine(port)
	if err := line.Configure(brick.DefaultBaud); err != nil {
		port.Close()
		return nil, err
	}
	drv := brick.NewDriver(line, dev)
	drv.Indicator = out
	drv.TargetBaud = c.TargetBaud()
	drv.KeepOffsetsOnAmbiguous = c.KeepOffsets
	return drv, nil
}

// ParsePort converts a port name (A-D for motors, 1-4 for sensors) to
// the port index.
func ParsePort(name string) (int, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) == 1 {
		switch ch := name[0]; {
		case ch >= 'A' && ch < 'A'+brick.NumPorts:
			return int(ch - 'A'), nil
		case ch >= '1' && ch < '1'+brick.NumPorts:
			return int(ch - '1'), nil
		}
	}
	return 0, fmt.Errorf("invalid port %q", name)
}

// Apply copies the profile into dev.
func (c *Config) Apply(dev *brick.Device) error {
	if len(c.Links) > brick.NumLinks {
		return fmt.Errorf("%d links configured, at most %d", len(c.Links), brick.NumLinks)
	}
	for i, l := range c.Links {
		if l.Address == comm.BroadcastAddress {
			return fmt.Errorf("link %d: address %d is reserved", i, l.Address)
		}
		dev.Links[i].Address = l.Address
		if l.Timeout > 0 {
			dev.Links[i].Timeout = l.Timeout
		}
	}
	for name, m := range c.Motors {
		port, err := ParsePort(name)
		if err != nil {
			return fmt.Errorf("motor: %w", err)
		}
		motor := &dev.Motors[port]
		if m.KP != nil {
			motor.KP = *m.KP
		}
		if m.KD != nil {
			motor.KD = *m.KD
		}
		if m.Dead != nil {
			motor.Dead = *m.Dead
		}
	}
	for name, s := range c.Sensors {
		port, err := ParsePort(name)
		if err != nil {
			return fmt.Errorf("sensor: %w", err)
		}
		cfg, err := s.SensorConfig()
		if err != nil {
			return fmt.Errorf("sensor %s: %w", name, err)
		}
		dev.Sensors[port] = brick.Sensor{SensorConfig: cfg}
	}
	return nil
}

// SensorConfig converts the profile to the wire configuration.
func (s *SensorProfile) SensorConfig() (cfg comm.SensorConfig, err error) {
	if cfg.Type, err = comm.ParseSensorType(s.Type); err != nil {
		return
	}
	if !cfg.Type.IsI2C() {
		if len(s.Devices) > 0 {
			err = fmt.Errorf("I2C devices on %v port", cfg.Type)
		}
		return
	}
	if len(s.Devices) > comm.MaxI2CDevices {
		err = fmt.Errorf("%d I2C devices, at most %d", len(s.Devices), comm.MaxI2CDevices)
		return
	}
	cfg.I2C.Speed, cfg.I2C.Count = s.Speed, len(s.Devices)
	for i, d := range s.Devices {
		if len(d.Write) > comm.MaxI2CTransfer || d.Read > comm.MaxI2CTransfer {
			err = fmt.Errorf("I2C device %d: transfer exceeds %d bytes", i, comm.MaxI2CTransfer)
			return
		}
		dev := &cfg.I2C.Devices[i]
		dev.Addr, dev.ReadLen, dev.WriteLen = d.Addr, d.Read, byte(len(d.Write))
		copy(dev.Out[:], d.Write)
		if d.Mid {
			dev.Flags |= comm.I2CFlagMid
		}
		if d.Same {
			dev.Flags |= comm.I2CFlagSame
		}
	}
	return
}
