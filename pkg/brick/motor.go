package brick

import "github.com/robotalks/brick.go/pkg/l0/comm"

// MaxSpeed is the largest speed magnitude of a motor.
const MaxSpeed = 255

func clip(speed int) int {
	switch {
	case speed > MaxSpeed:
		return MaxSpeed
	case speed < -MaxSpeed:
		return -MaxSpeed
	}
	return speed
}

// Command computes the drive of this cycle from the current encoder
// value. In MotorPosition it advances the regulator, updating LastError.
func (m *Motor) Command(encoder int32) comm.MotorCommand {
	var speed int
	switch m.Mode {
	case MotorSpeed:
		speed = clip(m.Speed)
	case MotorPosition:
		speed = m.regulate(encoder)
	default:
		return comm.MotorCommand{}
	}
	cmd := comm.MotorCommand{Enabled: true}
	if speed < 0 {
		cmd.Reverse, speed = true, -speed
	}
	cmd.Speed = uint8(speed)
	return cmd
}

// regulate runs one PD step towards Target. Outputs inside the dead band
// are suppressed and the others are pushed away from zero by its width.
func (m *Motor) regulate(encoder int32) int {
	e := int64(m.Target) - int64(encoder)
	speed := m.KP*float64(e) + m.KD*float64(e-int64(m.LastError))
	m.LastError = int32(e)
	switch {
	case speed > -m.Dead && speed < m.Dead:
		speed = 0
	case speed > 0:
		speed += m.Dead
	case speed < 0:
		speed -= m.Dead
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	} else if speed < -MaxSpeed {
		speed = -MaxSpeed
	}
	return int(speed)
}
