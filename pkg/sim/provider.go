package sim

import "time"

// RemoteAircraftProvider supplies the aircraft the network wants rendered.
type RemoteAircraftProvider interface {
	// RemoteAircraft returns snapshots of all known remote aircraft.
	RemoteAircraft() []Aircraft
	// RemoteAircraftByCallsign returns a snapshot of one aircraft.
	RemoteAircraftByCallsign(callsign string) (Aircraft, bool)
	// InterpolatedSituation returns the situation of callsign at the given time.
	InterpolatedSituation(callsign string, at time.Time) (Situation, bool)
	// Parts returns the latest parts of callsign.
	Parts(callsign string) (Parts, bool)
	// UpdateAircraftRendered marks callsign as (not) shown in the simulator.
	UpdateAircraftRendered(callsign string, rendered bool) bool
	// UpdateAircraftEnabled enables or disables callsign for rendering.
	UpdateAircraftEnabled(callsign string, enabled bool) bool
	// RememberGroundElevation stores a measured ground elevation for callsign.
	RememberGroundElevation(callsign string, elevationFt float64) bool
}

// OwnAircraftProvider holds the state of the user aircraft.
type OwnAircraftProvider interface {
	OwnAircraft() OwnAircraft
	UpdateOwnSituation(s Situation, altitudeAGL float64)
	UpdateOwnModel(title string)
}

// StatusListener receives lifecycle notifications from the AI object manager.
type StatusListener interface {
	// PhysicallyAddingRemoteModelFailed is called when an aircraft could not be
	// added; disabled is true when the aircraft was disabled for good.
	PhysicallyAddingRemoteModelFailed(ac Aircraft, disabled bool, message string)
	// ConnectionStatusChanged is called on every simulator state change.
	ConnectionStatusChanged(from, to State)
	// AircraftRenderingChanged is called when an aircraft appears in or leaves the simulator.
	AircraftRenderingChanged(ac Aircraft, rendered bool)
}

// StatusListeners fans out to several listeners.
type StatusListeners []StatusListener

func (ls StatusListeners) PhysicallyAddingRemoteModelFailed(ac Aircraft, disabled bool, message string) {
	for _, l := range ls {
		l.PhysicallyAddingRemoteModelFailed(ac, disabled, message)
	}
}

func (ls StatusListeners) ConnectionStatusChanged(from, to State) {
	for _, l := range ls {
		l.ConnectionStatusChanged(from, to)
	}
}

func (ls StatusListeners) AircraftRenderingChanged(ac Aircraft, rendered bool) {
	for _, l := range ls {
		l.AircraftRenderingChanged(ac, rendered)
	}
}
