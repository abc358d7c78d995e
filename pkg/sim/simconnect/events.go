package simconnect

import (
	"fmt"

	"swiftgo/pkg/sim"
)

// EventID is a client event id.
type EventID uint32

// Client events
const (
	EventSimStop EventID = iota
	EventPause
	EventObjectAdded
	EventObjectRemoved
	EventToggleStrobes
	EventToggleLandingLights
	EventToggleTaxiLights
	EventToggleBeaconLights
	EventToggleNavLights
	EventToggleLogoLights
	EventToggleRecognitionLights
	EventToggleCabinLights
	EventFreezeLatLng
	EventFreezeAltitude
	EventFreezeAttitude
)

// NamedEvent binds a client event to a simulator event name.
type NamedEvent struct {
	ID   EventID
	Name string
}

// SystemEvents are subscribed on connect.
var SystemEvents = []NamedEvent{
	{EventSimStop, "SimStop"},
	{EventPause, "Pause"},
	{EventObjectAdded, "ObjectAdded"},
	{EventObjectRemoved, "ObjectRemoved"},
}

// SimEvents are mapped on connect and transmitted to AI objects.
var SimEvents = []NamedEvent{
	{EventToggleStrobes, "STROBES_TOGGLE"},
	{EventToggleLandingLights, "LANDING_LIGHTS_TOGGLE"},
	{EventToggleTaxiLights, "TOGGLE_TAXI_LIGHTS"},
	{EventToggleBeaconLights, "TOGGLE_BEACON_LIGHTS"},
	{EventToggleNavLights, "TOGGLE_NAV_LIGHTS"},
	{EventToggleLogoLights, "TOGGLE_LOGO_LIGHTS"},
	{EventToggleRecognitionLights, "TOGGLE_RECOGNITION_LIGHTS"},
	{EventToggleCabinLights, "TOGGLE_CABIN_LIGHTS"},
	{EventFreezeLatLng, "FREEZE_LATITUDE_LONGITUDE_SET"},
	{EventFreezeAltitude, "FREEZE_ALTITUDE_SET"},
	{EventFreezeAttitude, "FREEZE_ATTITUDE_SET"},
}

func (e EventID) String() string {
	for _, list := range [][]NamedEvent{SystemEvents, SimEvents} {
		for _, ev := range list {
			if ev.ID == e {
				return ev.Name
			}
		}
	}
	return fmt.Sprintf("event(%d)", uint32(e))
}

var lightToggles = []struct {
	event EventID
	get   func(sim.Lights) bool
}{
	{EventToggleStrobes, func(l sim.Lights) bool { return l.Strobe }},
	{EventToggleLandingLights, func(l sim.Lights) bool { return l.Landing }},
	{EventToggleTaxiLights, func(l sim.Lights) bool { return l.Taxi }},
	{EventToggleBeaconLights, func(l sim.Lights) bool { return l.Beacon }},
	{EventToggleNavLights, func(l sim.Lights) bool { return l.Nav }},
	{EventToggleLogoLights, func(l sim.Lights) bool { return l.Logo }},
	{EventToggleRecognitionLights, func(l sim.Lights) bool { return l.Recognition }},
	{EventToggleCabinLights, func(l sim.Lights) bool { return l.Cabin }},
}

// LightToggles returns the toggle events needed to get from current to desired.
func LightToggles(current, desired sim.Lights) []EventID {
	var events []EventID
	for _, t := range lightToggles {
		if t.get(current) != t.get(desired) {
			events = append(events, t.event)
		}
	}
	return events
}

// ApplyToggle returns l with the light behind a toggle event flipped.
func ApplyToggle(l sim.Lights, ev EventID) sim.Lights {
	switch ev {
	case EventToggleStrobes:
		l.Strobe = !l.Strobe
	case EventToggleLandingLights:
		l.Landing = !l.Landing
	case EventToggleTaxiLights:
		l.Taxi = !l.Taxi
	case EventToggleBeaconLights:
		l.Beacon = !l.Beacon
	case EventToggleNavLights:
		l.Nav = !l.Nav
	case EventToggleLogoLights:
		l.Logo = !l.Logo
	case EventToggleRecognitionLights:
		l.Recognition = !l.Recognition
	case EventToggleCabinLights:
		l.Cabin = !l.Cabin
	}
	return l
}
