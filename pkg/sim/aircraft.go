package sim

import (
	"fmt"
	"time"
)

// Situation is a position and attitude sample of an aircraft.
type Situation struct {
	Latitude      float64   `json:"lat"`      // Degrees
	Longitude     float64   `json:"lon"`      // Degrees
	AltitudeMSL   float64   `json:"alt_msl"`  // Feet MSL
	Pitch         float64   `json:"pitch"`    // Degrees, nose up positive
	Bank          float64   `json:"bank"`     // Degrees, right wing down positive
	Heading       float64   `json:"heading"`  // Degrees True
	GroundSpeed   float64   `json:"gs"`       // Knots
	VerticalSpeed float64   `json:"vs"`       // Feet per minute
	OnGround      bool      `json:"on_ground"`
	Time          time.Time `json:"time"`

	// Ground elevation below the aircraft, valid if HasElevation.
	GroundElevation float64 `json:"ground_elevation"`
	HasElevation    bool    `json:"has_elevation"`
}

// IsNull reports whether the situation carries no position.
func (s Situation) IsNull() bool {
	return s.Latitude == 0 && s.Longitude == 0 && s.AltitudeMSL == 0
}

// Lights is the state of the exterior and cabin lights.
type Lights struct {
	Strobe      bool `json:"strobe"`
	Landing     bool `json:"landing"`
	Taxi        bool `json:"taxi"`
	Beacon      bool `json:"beacon"`
	Nav         bool `json:"nav"`
	Logo        bool `json:"logo"`
	Recognition bool `json:"recognition"`
	Cabin       bool `json:"cabin"`
}

func (l Lights) String() string {
	b := func(v bool) byte {
		if v {
			return '1'
		}
		return '0'
	}
	return fmt.Sprintf("str:%c lnd:%c tax:%c bcn:%c nav:%c log:%c rec:%c cab:%c",
		b(l.Strobe), b(l.Landing), b(l.Taxi), b(l.Beacon), b(l.Nav), b(l.Logo), b(l.Recognition), b(l.Cabin))
}

// MaxEngines is the number of engines carried in Parts.
const MaxEngines = 4

// Parts are the animated parts of an aircraft.
type Parts struct {
	Lights          Lights           `json:"lights"`
	GearDown        bool             `json:"gear_down"`
	FlapsPercent    float64          `json:"flaps_percent"`
	SpoilersPercent float64          `json:"spoilers_percent"`
	EnginesOn       [MaxEngines]bool `json:"engines_on"`
}

// EqualWithoutLights compares everything but the lights.
func (p Parts) EqualWithoutLights(o Parts) bool {
	p.Lights, o.Lights = Lights{}, Lights{}
	return p == o
}

// Aircraft is a remote (network) aircraft as known to the provider.
type Aircraft struct {
	Callsign    string    `json:"callsign"`
	ModelString string    `json:"model"` // simulator title
	ICAOType    string    `json:"icao_type"`
	Airline     string    `json:"airline"`
	Engines     int       `json:"engines"`
	CGFeet      float64   `json:"cg_ft"`
	Enabled     bool      `json:"enabled"`
	Rendered    bool      `json:"rendered"`
	Situation   Situation `json:"situation"`
	Parts       Parts     `json:"parts"`
}

// Valid reports whether the aircraft can be identified.
func (a Aircraft) Valid() bool {
	return a.Callsign != ""
}

// OwnAircraft is the user aircraft as mirrored from the simulator.
type OwnAircraft struct {
	ModelString string    `json:"model"`
	Situation   Situation `json:"situation"`
	AltitudeAGL float64   `json:"alt_agl"`
	Updated     time.Time `json:"updated"`
}
