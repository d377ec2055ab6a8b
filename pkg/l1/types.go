// Package l1 defines the identity of a brick host on the L1 network.
package l1

// DefaultType is the type of brick hosts.
const DefaultType = "brick"

// Ref is a reference to a brick host.
type Ref struct {
	// Type is the host type.
	Type string
	// ID is unique ID of the host.
	ID string
}

// Name retrieves the name from ref.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates Ref is valid.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// StateTopic is where the host publishes device state.
func (r Ref) StateTopic() string {
	return r.Name() + "/state"
}

// CommandTopic is where the host receives commands.
func (r Ref) CommandTopic() string {
	return r.Name() + "/cmd"
}
