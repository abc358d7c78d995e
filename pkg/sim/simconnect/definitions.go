package simconnect

import (
	"fmt"

	"swiftgo/pkg/sim"
)

// DefineID identifies a data definition.
type DefineID uint32

// Data definitions
const (
	DefinitionOwnAircraft DefineID = iota
	DefinitionOwnAircraftTitle
	DefinitionRemoteAircraftSetPosition
	DefinitionRemoteAircraftPartsWithoutLights
	DefinitionRemoteAircraftLights
	DefinitionRemoteAircraftGetPosition
	DefinitionRemoteAircraftModel
)

// Datum is one AddToDataDefinition call.
type Datum struct {
	Name string
	Unit string
	Type DataType
}

// Definition is an ordered datum list. Layout is the zero value of the Go
// struct carrying the data; its fields follow the datum order one to one.
type Definition struct {
	ID     DefineID
	Name   string
	Datums []Datum
	Layout any
}

// Size is the packed size of one data block of the definition.
func (d Definition) Size() int {
	n := 0
	for _, dt := range d.Datums {
		n += dt.Type.Size()
	}
	return n
}

// OwnAircraftData is DefinitionOwnAircraft.
type OwnAircraftData struct {
	Latitude      float64
	Longitude     float64
	AltitudeMSL   float64
	AltitudeAGL   float64
	Pitch         float64
	Bank          float64
	Heading       float64
	GroundSpeed   float64
	VerticalSpeed float64
	OnGround      int32
	SimDisabled   int32
}

// TitleData is DefinitionOwnAircraftTitle and DefinitionRemoteAircraftModel.
type TitleData struct {
	Title [256]byte
}

// String returns the title.
func (t TitleData) String() string { return cString(t.Title[:]) }

// SetPositionData is DefinitionRemoteAircraftSetPosition.
type SetPositionData struct {
	Position InitPosition
}

// PartsData is DefinitionRemoteAircraftPartsWithoutLights.
type PartsData struct {
	FlapsLeadingLeft   float64
	FlapsLeadingRight  float64
	FlapsTrailingLeft  float64
	FlapsTrailingRight float64
	GearHandle         float64
	SpoilersHandle     float64
	Engine1            float64
	Engine2            float64
	Engine3            float64
	Engine4            float64
}

// LightsData is DefinitionRemoteAircraftLights.
type LightsData struct {
	Strobe      float64
	Landing     float64
	Taxi        float64
	Beacon      float64
	Nav         float64
	Logo        float64
	Recognition float64
	Cabin       float64
}

// GetPositionData is DefinitionRemoteAircraftGetPosition, also used by terrain probes.
type GetPositionData struct {
	Latitude        float64
	Longitude       float64
	AltitudeMSL     float64
	AltitudeAGL     float64
	GroundElevation float64
	CGToGround      float64
}

// Definitions lists all data definitions registered on connect.
var Definitions = []Definition{
	{
		ID: DefinitionOwnAircraft, Name: "own aircraft", Layout: OwnAircraftData{},
		Datums: []Datum{
			{"PLANE LATITUDE", "Degrees", DATATYPE_FLOAT64},
			{"PLANE LONGITUDE", "Degrees", DATATYPE_FLOAT64},
			{"PLANE ALTITUDE", "Feet", DATATYPE_FLOAT64},
			{"PLANE ALT ABOVE GROUND", "Feet", DATATYPE_FLOAT64},
			{"PLANE PITCH DEGREES", "Degrees", DATATYPE_FLOAT64},
			{"PLANE BANK DEGREES", "Degrees", DATATYPE_FLOAT64},
			{"PLANE HEADING DEGREES TRUE", "Degrees", DATATYPE_FLOAT64},
			{"GROUND VELOCITY", "Knots", DATATYPE_FLOAT64},
			{"VERTICAL SPEED", "Feet per minute", DATATYPE_FLOAT64},
			{"SIM ON GROUND", "Bool", DATATYPE_INT32},
			{"SIM DISABLED", "Bool", DATATYPE_INT32},
		},
	},
	{
		ID: DefinitionOwnAircraftTitle, Name: "own aircraft title", Layout: TitleData{},
		Datums: []Datum{
			{"TITLE", "", DATATYPE_STRING256},
		},
	},
	{
		ID: DefinitionRemoteAircraftSetPosition, Name: "set position", Layout: SetPositionData{},
		Datums: []Datum{
			{"Initial Position", "", DATATYPE_INITPOSITION},
		},
	},
	{
		ID: DefinitionRemoteAircraftPartsWithoutLights, Name: "parts", Layout: PartsData{},
		Datums: []Datum{
			{"LEADING EDGE FLAPS LEFT PERCENT", "Percent Over 100", DATATYPE_FLOAT64},
			{"LEADING EDGE FLAPS RIGHT PERCENT", "Percent Over 100", DATATYPE_FLOAT64},
			{"TRAILING EDGE FLAPS LEFT PERCENT", "Percent Over 100", DATATYPE_FLOAT64},
			{"TRAILING EDGE FLAPS RIGHT PERCENT", "Percent Over 100", DATATYPE_FLOAT64},
			{"GEAR HANDLE POSITION", "Bool", DATATYPE_FLOAT64},
			{"SPOILERS HANDLE POSITION", "Percent Over 100", DATATYPE_FLOAT64},
			{"GENERAL ENG COMBUSTION:1", "Bool", DATATYPE_FLOAT64},
			{"GENERAL ENG COMBUSTION:2", "Bool", DATATYPE_FLOAT64},
			{"GENERAL ENG COMBUSTION:3", "Bool", DATATYPE_FLOAT64},
			{"GENERAL ENG COMBUSTION:4", "Bool", DATATYPE_FLOAT64},
		},
	},
	{
		ID: DefinitionRemoteAircraftLights, Name: "lights", Layout: LightsData{},
		Datums: []Datum{
			{"LIGHT STROBE", "Bool", DATATYPE_FLOAT64},
			{"LIGHT LANDING", "Bool", DATATYPE_FLOAT64},
			{"LIGHT TAXI", "Bool", DATATYPE_FLOAT64},
			{"LIGHT BEACON", "Bool", DATATYPE_FLOAT64},
			{"LIGHT NAV", "Bool", DATATYPE_FLOAT64},
			{"LIGHT LOGO", "Bool", DATATYPE_FLOAT64},
			{"LIGHT RECOGNITION", "Bool", DATATYPE_FLOAT64},
			{"LIGHT CABIN", "Bool", DATATYPE_FLOAT64},
		},
	},
	{
		ID: DefinitionRemoteAircraftGetPosition, Name: "get position", Layout: GetPositionData{},
		Datums: []Datum{
			{"PLANE LATITUDE", "Degrees", DATATYPE_FLOAT64},
			{"PLANE LONGITUDE", "Degrees", DATATYPE_FLOAT64},
			{"PLANE ALTITUDE", "Feet", DATATYPE_FLOAT64},
			{"PLANE ALT ABOVE GROUND", "Feet", DATATYPE_FLOAT64},
			{"GROUND ALTITUDE", "Feet", DATATYPE_FLOAT64},
			{"STATIC CG TO GROUND", "Feet", DATATYPE_FLOAT64},
		},
	},
	{
		ID: DefinitionRemoteAircraftModel, Name: "model", Layout: TitleData{},
		Datums: []Datum{
			{"TITLE", "", DATATYPE_STRING256},
		},
	},
}

// RegisterDefinitions declares every entry of Definitions to the simulator.
func RegisterDefinitions(api API) error {
	for _, def := range Definitions {
		for _, d := range def.Datums {
			if err := api.AddToDataDefinition(def.ID, d.Name, d.Unit, d.Type); err != nil {
				return fmt.Errorf("definition %q: %w", def.Name, err)
			}
		}
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// NewInitPosition builds the position block for a situation.
func NewInitPosition(s sim.Situation) InitPosition {
	p := InitPosition{
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		AltitudeMSL: s.AltitudeMSL,
		// SimConnect uses nose down and left wing down positive
		Pitch:    -s.Pitch,
		Bank:     -s.Bank,
		Heading:  s.Heading,
		Airspeed: uint32(s.GroundSpeed),
	}
	if s.OnGround {
		p.OnGround = 1
	}
	return p
}

// NewPartsData converts parts, lights are not part of this definition.
func NewPartsData(p sim.Parts) PartsData {
	flaps := p.FlapsPercent / 100
	return PartsData{
		FlapsLeadingLeft:   flaps,
		FlapsLeadingRight:  flaps,
		FlapsTrailingLeft:  flaps,
		FlapsTrailingRight: flaps,
		GearHandle:         boolToFloat(p.GearDown),
		SpoilersHandle:     p.SpoilersPercent / 100,
		Engine1:            boolToFloat(p.EnginesOn[0]),
		Engine2:            boolToFloat(p.EnginesOn[1]),
		Engine3:            boolToFloat(p.EnginesOn[2]),
		Engine4:            boolToFloat(p.EnginesOn[3]),
	}
}

// Lights converts the simulator reported lights.
func (l LightsData) Lights() sim.Lights {
	return sim.Lights{
		Strobe:      l.Strobe != 0,
		Landing:     l.Landing != 0,
		Taxi:        l.Taxi != 0,
		Beacon:      l.Beacon != 0,
		Nav:         l.Nav != 0,
		Logo:        l.Logo != 0,
		Recognition: l.Recognition != 0,
		Cabin:       l.Cabin != 0,
	}
}

// NewLightsData is the inverse of LightsData.Lights.
func NewLightsData(l sim.Lights) LightsData {
	return LightsData{
		Strobe:      boolToFloat(l.Strobe),
		Landing:     boolToFloat(l.Landing),
		Taxi:        boolToFloat(l.Taxi),
		Beacon:      boolToFloat(l.Beacon),
		Nav:         boolToFloat(l.Nav),
		Logo:        boolToFloat(l.Logo),
		Recognition: boolToFloat(l.Recognition),
		Cabin:       boolToFloat(l.Cabin),
	}
}

// Situation converts own aircraft data.
func (d OwnAircraftData) Situation() sim.Situation {
	return sim.Situation{
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		AltitudeMSL:   d.AltitudeMSL,
		Pitch:         -d.Pitch,
		Bank:          -d.Bank,
		Heading:       d.Heading,
		GroundSpeed:   d.GroundSpeed,
		VerticalSpeed: d.VerticalSpeed,
		OnGround:      d.OnGround != 0,
	}
}
