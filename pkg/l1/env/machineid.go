// Package env resolves the identity of the host.
package env

import (
	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/brick.go/pkg/l1"
)

// MachineID retrieves the ID identifying the machine. The raw machine id
// is hashed with the host type so it isn't published.
func MachineID() (string, error) {
	return machineid.ProtectedID(l1.DefaultType)
}

// DefaultRef creates the Ref of this host. A non-empty id overrides the
// machine ID.
func DefaultRef(id string) (l1.Ref, error) {
	ref := l1.Ref{Type: l1.DefaultType, ID: id}
	if ref.ID != "" {
		return ref, nil
	}
	var err error
	ref.ID, err = MachineID()
	return ref, err
}
