package mocksim

import (
	"math"
	"time"

	"swiftgo/pkg/geo"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
)

// Flight stages of the own aircraft
const (
	StageParked   = "PARKED"
	StageTaxiing  = "TAXIING"
	StageAirborne = "AIRBORNE"
)

const (
	taxiSpeed   = 15.0   // knots
	cruiseSpeed = 120.0  // knots
	climbRate   = 1000.0 // ft/min
	cruiseAGL   = 3000.0 // feet
	turnEvery   = 60 * time.Second
	turnDegrees = 10.0
)

type ownAircraft struct {
	cfg        Config
	stage      string
	stageStart time.Time
	lastTurn   time.Time
	turnSign   float64
	s          sim.Situation
	vs         *sim.VerticalSpeedBuffer
}

func newOwnAircraft(cfg Config, now time.Time) ownAircraft {
	return ownAircraft{
		cfg:        cfg,
		stage:      StageParked,
		stageStart: now,
		lastTurn:   now,
		turnSign:   1,
		s: sim.Situation{
			Latitude:    cfg.StartLat,
			Longitude:   cfg.StartLon,
			AltitudeMSL: cfg.StartAlt,
			Heading:     cfg.StartHeading,
			OnGround:    true,
			Time:        now,
		},
		vs: sim.NewVerticalSpeedBuffer(5 * time.Second),
	}
}

func (o *ownAircraft) advance(dt time.Duration, now time.Time) {
	inStage := now.Sub(o.stageStart)

	switch o.stage {
	case StageParked:
		o.s.GroundSpeed = 0
		if inStage >= o.cfg.DurationParked {
			o.stage, o.stageStart = StageTaxiing, now
		}
	case StageTaxiing:
		o.s.GroundSpeed = taxiSpeed
		if inStage >= o.cfg.DurationTaxi {
			o.stage, o.stageStart = StageAirborne, now
			o.lastTurn = now
		}
	case StageAirborne:
		o.s.GroundSpeed = cruiseSpeed
		if o.s.AltitudeMSL < o.cfg.GroundElevation+cruiseAGL {
			o.s.AltitudeMSL += climbRate * dt.Minutes()
			o.s.Pitch = 5
		} else {
			o.s.Pitch = 0
		}
		// alternate gentle turns so the aircraft wanders around the start point
		if now.Sub(o.lastTurn) >= turnEvery {
			o.s.Heading = math.Mod(o.s.Heading+o.turnSign*turnDegrees+360, 360)
			o.turnSign = -o.turnSign
			o.lastTurn = now
		}
	}

	if dist := o.s.GroundSpeed * geo.KnotsToMetersPS * dt.Seconds(); dist > 0 {
		p := geo.DestinationPoint(geo.Point{Lat: o.s.Latitude, Lon: o.s.Longitude}, dist, o.s.Heading)
		o.s.Latitude, o.s.Longitude = p.Lat, p.Lon
	}
	o.s.OnGround = o.s.AltitudeMSL-o.cfg.GroundElevation < 50
	o.s.VerticalSpeed = o.vs.Update(now, o.s.AltitudeMSL)
	o.s.Time = now
}

func (o *ownAircraft) data(groundElevation float64) simconnect.OwnAircraftData {
	d := simconnect.OwnAircraftData{
		Latitude:      o.s.Latitude,
		Longitude:     o.s.Longitude,
		AltitudeMSL:   o.s.AltitudeMSL,
		AltitudeAGL:   math.Max(0, o.s.AltitudeMSL-groundElevation),
		Pitch:         -o.s.Pitch,
		Bank:          -o.s.Bank,
		Heading:       o.s.Heading,
		GroundSpeed:   o.s.GroundSpeed,
		VerticalSpeed: o.s.VerticalSpeed,
	}
	if o.s.OnGround {
		d.OnGround = 1
	}
	return d
}
