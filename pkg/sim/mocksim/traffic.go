package mocksim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"swiftgo/pkg/geo"
	"swiftgo/pkg/sim"
)

var syntheticTypes = []struct{ icao, airline string }{
	{"A320", "DLH"},
	{"A20N", "EZY"},
	{"B738", "RYR"},
	{"B77W", "UAE"},
	{"A359", "SIA"},
	{"E190", "KLM"},
	{"C172", ""},
}

// TrafficSink receives synthetic aircraft.
type TrafficSink interface {
	Upsert(ac sim.Aircraft, now time.Time)
}

type circler struct {
	ac       sim.Aircraft
	radiusM  float64
	startDeg float64
	speedKt  float64
	started  time.Time
}

// TrafficGenerator flies synthetic aircraft on circles around a center, for
// running the manager without a network feed.
type TrafficGenerator struct {
	center   geo.Point
	aircraft []circler
}

// NewTrafficGenerator creates n aircraft within 2 to 30 nm of the center.
// The same seed gives the same traffic.
func NewTrafficGenerator(lat, lon float64, n int, seed uint64, now time.Time) *TrafficGenerator {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	g := &TrafficGenerator{center: geo.Point{Lat: lat, Lon: lon}}
	for i := range n {
		t := syntheticTypes[rng.IntN(len(syntheticTypes))]
		cs := fmt.Sprintf("MCK%03d", i+1)
		if t.airline != "" {
			cs = fmt.Sprintf("%s%d", t.airline, 100+i)
		}
		engines := 2
		if t.icao == "C172" {
			engines = 1
		}
		g.aircraft = append(g.aircraft, circler{
			ac: sim.Aircraft{
				Callsign: cs,
				ICAOType: t.icao,
				Airline:  t.airline,
				Engines:  engines,
				Parts: sim.Parts{
					Lights:    sim.Lights{Nav: true, Beacon: true, Strobe: true, Logo: true},
					EnginesOn: [sim.MaxEngines]bool{true, engines > 1},
				},
			},
			radiusM:  (2 + rng.Float64()*28) * geo.MetersPerNM,
			startDeg: rng.Float64() * 360,
			speedKt:  120 + rng.Float64()*250,
			started:  now,
		})
		g.aircraft[i].ac.Situation.AltitudeMSL = 3000 + float64(rng.IntN(30))*1000
	}
	return g
}

// Step returns every aircraft at time now.
func (g *TrafficGenerator) Step(now time.Time) []sim.Aircraft {
	out := make([]sim.Aircraft, len(g.aircraft))
	for i, c := range g.aircraft {
		elapsed := now.Sub(c.started).Hours()
		travelledM := c.speedKt * elapsed * geo.MetersPerNM
		// Clockwise, so the track is the radial plus 90 degrees.
		radial := math.Mod(c.startDeg+travelledM/c.radiusM*180/math.Pi, 360)
		p := geo.DestinationPoint(g.center, c.radiusM, radial)

		ac := c.ac
		ac.Situation.Latitude = p.Lat
		ac.Situation.Longitude = p.Lon
		ac.Situation.Heading = math.Mod(radial+90, 360)
		ac.Situation.GroundSpeed = c.speedKt
		ac.Situation.Bank = 5
		ac.Situation.Time = now
		out[i] = ac
	}
	return out
}

// Run feeds sink every interval until ctx is done.
func (g *TrafficGenerator) Run(ctx context.Context, interval time.Duration, sink TrafficSink) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		now := time.Now()
		for _, ac := range g.Step(now) {
			sink.Upsert(ac, now)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
