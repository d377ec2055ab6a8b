package brick

import (
	"errors"
	"fmt"

	"github.com/robotalks/brick.go/pkg/l0/comm"
)

// ErrStopUnconfirmed indicates an emergency stop fell back to broadcast
// because a peer never acknowledged it.
var ErrStopUnconfirmed = errors.New("emergency stop unconfirmed")

// LinkError is the failure of a values exchange after all attempts.
type LinkError struct {
	Link     int
	Attempts int
	Err      error
}

// Error implements error.
func (e *LinkError) Error() string {
	return fmt.Sprintf("link %d failed after %d attempts: %v", e.Link, e.Attempts, e.Err)
}

// Unwrap returns the error of the last attempt.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// ConfigError is a configuration request not acknowledged by a peer.
// It matches comm.ErrConfigRejected.
type ConfigError struct {
	Address byte
	Kind    comm.Kind
	Err     error
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v to %d: %v: %v", e.Kind, e.Address, comm.ErrConfigRejected, e.Err)
}

// Unwrap returns the cause of the rejection.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is.
func (e *ConfigError) Is(target error) bool {
	return target == comm.ErrConfigRejected
}
