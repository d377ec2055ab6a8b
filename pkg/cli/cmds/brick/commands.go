// Package brick exposes the brick host commands in the shell.
package brick

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/brick.go/pkg/cli/sh"
	"github.com/robotalks/brick.go/pkg/config"
	"github.com/robotalks/brick.go/pkg/l1/msgs"
)

// ParseMotorSet builds MotorSet from PORT MODE [VALUE].
func ParseMotorSet(args []string) (*msgs.MotorSet, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("PORT and MODE required")
	}
	port, err := config.ParsePort(args[0])
	if err != nil {
		return nil, err
	}
	msg := &msgs.MotorSet{Port: int32(port), Mode: args[1]}
	switch msg.Mode {
	case msgs.ModeFloat:
		return msg, nil
	case msgs.ModeSpeed, msgs.ModePosition:
	default:
		return nil, fmt.Errorf("invalid MODE %q", msg.Mode)
	}
	if len(args) < 3 {
		return nil, fmt.Errorf("VALUE required")
	}
	val, err := strconv.ParseInt(args[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid VALUE: %w", err)
	}
	if msg.Mode == msgs.ModeSpeed {
		msg.Speed = int32(val)
	} else {
		msg.Target = int32(val)
	}
	return msg, nil
}

// ParseEncoderOffset builds EncoderOffset from PORT DELTA.
func ParseEncoderOffset(args []string) (*msgs.EncoderOffset, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("PORT and DELTA required")
	}
	port, err := config.ParsePort(args[0])
	if err != nil {
		return nil, err
	}
	delta, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DELTA: %w", err)
	}
	return &msgs.EncoderOffset{Port: int32(port), Delta: int32(delta)}, nil
}

var (
	// MotorCmd exposes MotorSet command.
	MotorCmd = ishell.Cmd{
		Name:    "motor",
		Aliases: []string{"m"},
		Help:    "PORT float|speed|position [SPEED|TARGET]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseMotorSet(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// OffsetCmd exposes EncoderOffset command.
	OffsetCmd = ishell.Cmd{
		Name:    "offset",
		Aliases: []string{"o"},
		Help:    "PORT DELTA",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseEncoderOffset(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// StopCmd exposes EmergencyStop command.
	StopCmd = ishell.Cmd{
		Name:    "estop",
		Aliases: []string{"x"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.EmergencyStop{})
		}),
	}
)

func init() {
	sh.AddCmds(
		&MotorCmd,
		&OffsetCmd,
		&StopCmd,
	)
}
