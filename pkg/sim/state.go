// Package sim provides simulator facing types and the interfaces between the
// AI object manager and its collaborators.
package sim

import "errors"

var (
	// ErrNotConnected is returned when an action requires a simulator connection.
	ErrNotConnected = errors.New("simulator not connected")
)

// State represents the connection and activity state of the simulator.
type State string

const (
	// StateDisconnected indicates no connection to the simulator.
	StateDisconnected State = "disconnected"
	// StateConnected indicates an open connection before the simulation runs.
	StateConnected State = "connected"
	// StateSimulating indicates connected and the simulation is running.
	StateSimulating State = "simulating"
	// StatePaused indicates connected and the simulation is paused.
	StatePaused State = "paused"
)

// IsConnected reports whether the state implies an open connection.
func (s State) IsConnected() bool {
	return s != StateDisconnected && s != ""
}
