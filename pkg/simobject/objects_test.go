package simobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
)

func TestObjects_InsertUniqueObjectID(t *testing.T) {
	c := NewObjects()
	a := newAircraft("DLH123", simconnect.AircraftRange.First())
	a.SetObjectID(500)
	b := newAircraft("BAW1", simconnect.AircraftRange.First()+1)
	b.SetObjectID(500)

	require.True(t, c.Insert(a))
	require.True(t, c.Insert(b))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "BAW1", c.ForObjectID(500).Callsign())

	assert.False(t, c.Insert(&Object{}), "invalid objects are rejected")
}

func TestObjects_RemoveByObjectIDIdempotent(t *testing.T) {
	c := NewObjects()
	a := newAircraft("DLH123", simconnect.AircraftRange.First())
	a.SetObjectID(500)
	c.Insert(a)
	c.Insert(newAircraft("BAW1", simconnect.AircraftRange.First()+1))

	assert.True(t, c.RemoveByObjectID(500))
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.RemoveByObjectID(500))
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains("BAW1"))
}

func TestObjects_LookupMissReturnsInvalid(t *testing.T) {
	c := NewObjects()
	c.Insert(newAircraft("DLH123", simconnect.AircraftRange.First()))

	assert.True(t, c.ForObjectID(42).IsInvalid())
	assert.True(t, c.ForRequestID(99).IsInvalid())
	assert.False(t, c.ForRequestID(simconnect.AircraftRange.First()).IsInvalid())
	assert.True(t, NewObjects().Oldest(Aircraft).IsInvalid())
}

func TestObjects_RemoveCallsignsAndOther(t *testing.T) {
	c := NewObjects()
	c.Insert(newAircraft("A", simconnect.AircraftRange.First()))
	c.Insert(newAircraft("B", simconnect.AircraftRange.First()+1))
	c.Insert(newAircraft("C", simconnect.AircraftRange.First()+2))

	assert.Equal(t, 2, c.RemoveCallsigns("A", "B", "X"))
	assert.Equal(t, 0, c.RemoveCallsigns("A", "B"))

	other := newAircraft("C", simconnect.AircraftRange.First()+9)
	assert.True(t, c.RemoveByOtherSimObject(other))
	assert.False(t, c.RemoveByOtherSimObject(other))
	assert.Zero(t, c.Len())
}

func TestObjects_RemoveOutdatedPendingAdded(t *testing.T) {
	c := NewObjects()

	old := newAircraft("OLD", simconnect.AircraftRange.First())
	young := New(sim.Aircraft{Callsign: "YOUNG"}, Aircraft, simconnect.AircraftRange.First()+1, t0.Add(4*time.Second))
	confirmed := newAircraft("CONF", simconnect.AircraftRange.First()+2)
	confirmed.SetObjectID(3)
	confirmed.SetConfirmedAdded(true)
	probe := New(sim.Aircraft{Callsign: "PROBE"}, TerrainProbe, simconnect.ProbeRange.First(), t0)

	for _, o := range []*Object{old, young, confirmed, probe} {
		c.Insert(o)
	}

	now := t0.Add(OutdatedPendingThreshold + time.Second)
	removed := c.RemoveOutdatedPendingAdded(Aircraft, now)
	require.Len(t, removed, 1)
	assert.Equal(t, "OLD", removed[0].Callsign())
	assert.False(t, c.Contains("OLD"))
	assert.True(t, c.Contains("YOUNG"))
	assert.True(t, c.Contains("CONF"))
	assert.True(t, c.Contains("PROBE"), "other types untouched")

	removed = c.RemoveOutdatedPendingAdded(AllTypes, now)
	require.Len(t, removed, 1)
	assert.Equal(t, "PROBE", removed[0].Callsign())
}

func TestObjects_Queries(t *testing.T) {
	c := NewObjects()
	a := newAircraft("A", simconnect.AircraftRange.First())
	b := New(sim.Aircraft{Callsign: "B"}, Aircraft, simconnect.AircraftRange.First()+1, t0.Add(time.Second))
	b.SetObjectID(10)
	b.SetConfirmedAdded(true)
	r := New(sim.Aircraft{Callsign: "R"}, Aircraft, simconnect.AircraftRange.First()+2, t0.Add(2*time.Second))
	r.SetObjectID(11)
	r.SetConfirmedAdded(true)
	r.SetPendingRemoved(true)
	p := New(sim.Aircraft{Callsign: "P"}, TerrainProbe, simconnect.ProbeRange.First(), t0.Add(-time.Second))
	for _, o := range []*Object{a, b, r, p} {
		c.Insert(o)
	}

	assert.True(t, c.ContainsPendingAdded(Aircraft))
	assert.Equal(t, 1, c.CountPendingAdded(Aircraft))
	assert.Equal(t, 1, c.CountConfirmedAdded(Aircraft))
	assert.Len(t, c.PendingRemoved(Aircraft), 1)
	assert.Len(t, c.Probes(), 1)
	assert.Len(t, c.Aircraft(), 3)
	assert.Equal(t, "A", c.Oldest(Aircraft).Callsign())
	assert.Equal(t, "P", c.Oldest(AllTypes).Callsign())
	assert.Equal(t, []string{"A", "B", "R"}, c.Callsigns(Aircraft))

	c.Clear()
	assert.Zero(t, c.Len())
}

// Confirmed objects always carry both ids, whatever order the calls came in.
func TestObjects_ConfirmedImpliesValidIDs(t *testing.T) {
	c := NewObjects()
	for i := 0; i < 20; i++ {
		o := New(sim.Aircraft{Callsign: string(rune('A' + i))}, Aircraft, simconnect.AircraftRange.First()+uint32(i), t0)
		if i%2 == 0 {
			o.SetObjectID(uint32(100 + i))
		}
		o.SetConfirmedAdded(i%3 != 0)
		c.Insert(o)
	}
	for _, o := range c.ByType(AllTypes) {
		if o.IsConfirmedAdded() {
			assert.True(t, o.HasValidRequestAndObjectID(), o.String())
		}
	}
}
