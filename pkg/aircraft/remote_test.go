package aircraft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftgo/pkg/sim"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sample(cs string, at time.Time, lat, lon, alt, hdg float64) sim.Aircraft {
	return sim.Aircraft{
		Callsign: cs,
		ICAOType: "B738",
		Situation: sim.Situation{
			Latitude:    lat,
			Longitude:   lon,
			AltitudeMSL: alt,
			Heading:     hdg,
			GroundSpeed: 250,
			Time:        at,
		},
	}
}

func TestRemoteProvider_UpsertKeepsFlags(t *testing.T) {
	p := NewRemoteProvider(0, 0)
	p.Upsert(sample("dlh123", t0, 50, 8, 5000, 90), t0)

	ac, ok := p.RemoteAircraftByCallsign("DLH123")
	require.True(t, ok, "callsigns are upper case")
	assert.True(t, ac.Enabled, "new aircraft start enabled")

	require.True(t, p.UpdateAircraftEnabled("DLH123", false))
	require.True(t, p.UpdateAircraftRendered("DLH123", true))
	p.Upsert(sample("DLH123", t0.Add(5*time.Second), 50, 8.01, 5100, 90), t0.Add(5*time.Second))

	ac = p.RemoteAircraft()[0]
	assert.False(t, ac.Enabled)
	assert.True(t, ac.Rendered)
	assert.Equal(t, 8.01, ac.Situation.Longitude)
	assert.InDelta(t, 1200, ac.Situation.VerticalSpeed, 1, "derived from altitude samples")

	assert.False(t, p.UpdateAircraftEnabled("NOPE", true))
}

func TestRemoteProvider_IgnoresOlderSituations(t *testing.T) {
	p := NewRemoteProvider(0, 0)
	p.Upsert(sample("A", t0.Add(time.Second), 50, 8, 5000, 90), t0)
	p.Upsert(sample("A", t0, 51, 9, 6000, 90), t0)

	e, ok := p.Entry("A")
	require.True(t, ok)
	assert.Len(t, e.History, 1)
	assert.Equal(t, 50.0, e.Aircraft.Situation.Latitude)
}

func TestRemoteProvider_HistoryBounded(t *testing.T) {
	p := NewRemoteProvider(3, 0)
	for i := range 5 {
		at := t0.Add(time.Duration(i) * time.Second)
		p.Upsert(sample("A", at, 50, 8+float64(i)*0.01, 5000, 90), at)
	}
	e, _ := p.Entry("A")
	require.Len(t, e.History, 3)
	assert.Equal(t, t0.Add(2*time.Second), e.History[0].Time)

	// the copy is independent
	e.History[0].Latitude = 0
	again, _ := p.Entry("A")
	assert.Equal(t, 50.0, again.History[0].Latitude)
}

func TestRemoteProvider_InterpolatedSituation(t *testing.T) {
	p := NewRemoteProvider(0, 10*time.Second)
	p.Upsert(sample("A", t0, 50, 8, 5000, 350), t0)
	p.Upsert(sample("A", t0.Add(10*time.Second), 50, 8.1, 6000, 10), t0.Add(10*time.Second))

	tests := []struct {
		name    string
		at      time.Time
		lon     float64
		alt     float64
		heading float64
	}{
		{"before first", t0.Add(-time.Second), 8, 5000, 350},
		{"halfway", t0.Add(5 * time.Second), 8.05, 5500, 0},
		{"newest", t0.Add(10 * time.Second), 8.1, 6000, 10},
		{"extrapolated", t0.Add(15 * time.Second), 8.15, 6500, 20},
		{"extrapolation capped", t0.Add(time.Minute), 8.2, 7000, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := p.InterpolatedSituation("A", tt.at)
			require.True(t, ok)
			assert.InDelta(t, tt.lon, s.Longitude, 0.001)
			assert.InDelta(t, 50, s.Latitude, 0.01)
			assert.InDelta(t, tt.alt, s.AltitudeMSL, 0.5)
			assert.InDelta(t, tt.heading, s.Heading, 0.01)
		})
	}

	_, ok := p.InterpolatedSituation("B", t0)
	assert.False(t, ok)
}

func TestRemoteProvider_GroundElevation(t *testing.T) {
	p := NewRemoteProvider(0, 0)
	ac := sample("A", t0, 50, 8, 380, 90)
	ac.Situation.OnGround = true
	ac.CGFeet = 6
	p.Upsert(ac, t0)

	require.True(t, p.RememberGroundElevation("A", 364))
	got, _ := p.RemoteAircraftByCallsign("A")
	assert.Equal(t, 370.0, got.Situation.AltitudeMSL)
	assert.True(t, got.Situation.HasElevation)

	s, ok := p.InterpolatedSituation("A", t0.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, 370.0, s.AltitudeMSL)
	assert.Equal(t, 364.0, s.GroundElevation)

	assert.False(t, p.RememberGroundElevation("B", 1))
}

func TestRemoteProvider_Prune(t *testing.T) {
	p := NewRemoteProvider(0, 0)
	p.Upsert(sample("OLD", t0, 50, 8, 5000, 90), t0)
	p.Upsert(sample("NEW", t0, 50, 8, 5000, 90), t0.Add(time.Minute))

	assert.Equal(t, []string{"OLD"}, p.Prune(t0.Add(30*time.Second)))
	assert.Equal(t, 1, p.Len())
	assert.True(t, p.Remove("NEW"))
	assert.False(t, p.Remove("NEW"))
}

func TestOwnProvider(t *testing.T) {
	o := NewOwnProvider()
	o.UpdateOwnModel("Cessna 172")
	o.UpdateOwnSituation(sim.Situation{Latitude: 50, Longitude: 8, Time: t0}, 1200)

	own := o.OwnAircraft()
	assert.Equal(t, "Cessna 172", own.ModelString)
	assert.Equal(t, 1200.0, own.AltitudeAGL)
	assert.Equal(t, t0, own.Updated)
}
