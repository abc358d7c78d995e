// Package aircraft holds the remote (network) and own aircraft state shared
// between the feed, the traffic manager and the API, plus the model matcher.
package aircraft

import (
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

	"swiftgo/pkg/geo"
	"swiftgo/pkg/sim"
)

const (
	// DefaultHistory is the number of situations kept per aircraft.
	DefaultHistory = 6
	// DefaultMaxExtrapolation bounds how far ahead of the newest sample a
	// position is predicted.
	DefaultMaxExtrapolation = 20 * time.Second

	vsWindow = 30 * time.Second
)

// Entry is everything the provider knows about one callsign.
type Entry struct {
	Aircraft sim.Aircraft    `json:"aircraft"`
	History  []sim.Situation `json:"history"` // oldest first
	LastSeen time.Time       `json:"last_seen"`

	groundElevation float64
	hasElevation    bool
	vs              *sim.VerticalSpeedBuffer
}

// RemoteProvider stores the remote aircraft. It is safe for concurrent use.
type RemoteProvider struct {
	mu       sync.RWMutex
	aircraft map[string]*Entry

	history          int
	maxExtrapolation time.Duration
	logger           *slog.Logger
}

// NewRemoteProvider creates an empty provider.
func NewRemoteProvider(history int, maxExtrapolation time.Duration) *RemoteProvider {
	if history < 2 {
		history = DefaultHistory
	}
	if maxExtrapolation <= 0 {
		maxExtrapolation = DefaultMaxExtrapolation
	}
	return &RemoteProvider{
		aircraft:         make(map[string]*Entry),
		history:          history,
		maxExtrapolation: maxExtrapolation,
		logger:           slog.Default().With("component", "remote_aircraft"),
	}
}

// Upsert adds or updates an aircraft from the network. Enabled, Rendered and
// CG are owned by the provider and kept for known aircraft; new aircraft
// start enabled. Situations not newer than the last one are ignored.
func (p *RemoteProvider) Upsert(ac sim.Aircraft, now time.Time) {
	if !ac.Valid() {
		return
	}
	ac.Callsign = strings.ToUpper(ac.Callsign)

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.aircraft[ac.Callsign]
	if !ok {
		ac.Enabled = true
		ac.Rendered = false
		e = &Entry{vs: sim.NewVerticalSpeedBuffer(vsWindow)}
		p.aircraft[ac.Callsign] = e
		p.logger.Debug("New remote aircraft", "callsign", ac.Callsign, "type", ac.ICAOType)
	} else {
		ac.Enabled = e.Aircraft.Enabled
		ac.Rendered = e.Aircraft.Rendered
		if ac.CGFeet == 0 {
			ac.CGFeet = e.Aircraft.CGFeet
		}
		if ac.ModelString == "" {
			ac.ModelString = e.Aircraft.ModelString
		}
	}
	e.LastSeen = now

	s := ac.Situation
	if s.Time.IsZero() {
		s.Time = now
	}
	if n := len(e.History); !s.IsNull() && (n == 0 || s.Time.After(e.History[n-1].Time)) {
		if s.VerticalSpeed == 0 {
			s.VerticalSpeed = e.vs.Update(s.Time, s.AltitudeMSL)
		}
		e.History = append(e.History, s)
		if len(e.History) > p.history {
			e.History = slices.Delete(e.History, 0, len(e.History)-p.history)
		}
	}
	if n := len(e.History); n > 0 {
		ac.Situation = e.History[n-1]
	}
	p.applyElevation(e, &ac.Situation)
	e.Aircraft = ac
}

// Remove forgets callsign.
func (p *RemoteProvider) Remove(callsign string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.aircraft[callsign]; !ok {
		return false
	}
	delete(p.aircraft, callsign)
	return true
}

// Prune removes aircraft not seen since cutoff and returns their callsigns.
func (p *RemoteProvider) Prune(cutoff time.Time) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var gone []string
	for cs, e := range p.aircraft {
		if e.LastSeen.Before(cutoff) {
			delete(p.aircraft, cs)
			gone = append(gone, cs)
		}
	}
	slices.Sort(gone)
	return gone
}

// Len returns the number of known aircraft.
func (p *RemoteProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.aircraft)
}

// RemoteAircraft returns all aircraft sorted by callsign.
func (p *RemoteProvider) RemoteAircraft() []sim.Aircraft {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]sim.Aircraft, 0, len(p.aircraft))
	for _, e := range p.aircraft {
		out = append(out, e.Aircraft)
	}
	slices.SortFunc(out, func(a, b sim.Aircraft) int { return strings.Compare(a.Callsign, b.Callsign) })
	return out
}

func (p *RemoteProvider) RemoteAircraftByCallsign(callsign string) (sim.Aircraft, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.aircraft[callsign]
	if !ok {
		return sim.Aircraft{}, false
	}
	return e.Aircraft, true
}

// Entry returns a deep copy of the entry of callsign, history included.
func (p *RemoteProvider) Entry(callsign string) (Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.aircraft[callsign]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Aircraft: e.Aircraft,
		History:  deepcopy.Copy(e.History).([]sim.Situation),
		LastSeen: e.LastSeen,
	}, true
}

func (p *RemoteProvider) Parts(callsign string) (sim.Parts, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.aircraft[callsign]
	if !ok {
		return sim.Parts{}, false
	}
	return e.Aircraft.Parts, true
}

func (p *RemoteProvider) UpdateAircraftRendered(callsign string, rendered bool) bool {
	return p.update(callsign, func(e *Entry) { e.Aircraft.Rendered = rendered })
}

func (p *RemoteProvider) UpdateAircraftEnabled(callsign string, enabled bool) bool {
	return p.update(callsign, func(e *Entry) { e.Aircraft.Enabled = enabled })
}

// RememberGroundElevation stores the ground elevation below callsign. On
// ground situations are clamped to it from now on.
func (p *RemoteProvider) RememberGroundElevation(callsign string, elevationFt float64) bool {
	return p.update(callsign, func(e *Entry) {
		e.groundElevation = elevationFt
		e.hasElevation = true
		p.applyElevation(e, &e.Aircraft.Situation)
	})
}

func (p *RemoteProvider) update(callsign string, fn func(*Entry)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.aircraft[callsign]
	if !ok {
		return false
	}
	fn(e)
	return true
}

func (p *RemoteProvider) applyElevation(e *Entry, s *sim.Situation) {
	if !e.hasElevation {
		return
	}
	s.GroundElevation = e.groundElevation
	s.HasElevation = true
	if s.OnGround {
		s.AltitudeMSL = e.groundElevation + e.Aircraft.CGFeet
	}
}

// InterpolatedSituation returns the situation of callsign at the given time.
// Between two samples position, altitude and heading are interpolated,
// after the newest sample the motion of the last two is extrapolated for at
// most maxExtrapolation.
func (p *RemoteProvider) InterpolatedSituation(callsign string, at time.Time) (sim.Situation, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.aircraft[callsign]
	if !ok || len(e.History) == 0 {
		return sim.Situation{}, false
	}

	h := e.History
	var s sim.Situation
	switch {
	case len(h) == 1 || !at.After(h[0].Time):
		s = h[0]
	case at.After(h[len(h)-1].Time):
		prev, last := h[len(h)-2], h[len(h)-1]
		limit := last.Time.Add(p.maxExtrapolation)
		if at.After(limit) {
			at = limit
		}
		s = interpolate(prev, last, fraction(prev.Time, last.Time, at))
	default:
		i, _ := slices.BinarySearchFunc(h, at, func(s sim.Situation, t time.Time) int { return s.Time.Compare(t) })
		s = interpolate(h[i-1], h[i], fraction(h[i-1].Time, h[i].Time, at))
	}
	s.Time = at
	p.applyElevation(e, &s)
	return s, true
}

func fraction(from, to, at time.Time) float64 {
	span := to.Sub(from)
	if span <= 0 {
		return 1
	}
	return float64(at.Sub(from)) / float64(span)
}

// interpolate moves along the great circle from a towards b by f (f > 1
// extrapolates). Discrete values are taken from b.
func interpolate(a, b sim.Situation, f float64) sim.Situation {
	s := b
	pa := geo.Point{Lat: a.Latitude, Lon: a.Longitude}
	pb := geo.Point{Lat: b.Latitude, Lon: b.Longitude}
	if d := geo.Distance(pa, pb); d > 0 {
		pos := geo.DestinationPoint(pa, d*f, geo.Bearing(pa, pb))
		s.Latitude, s.Longitude = pos.Lat, pos.Lon
	}
	s.AltitudeMSL = lerp(a.AltitudeMSL, b.AltitudeMSL, f)
	s.Pitch = lerp(a.Pitch, b.Pitch, min(f, 1))
	s.Bank = lerp(a.Bank, b.Bank, min(f, 1))
	s.Heading = math.Mod(a.Heading+geo.NormalizeAngle(b.Heading-a.Heading)*f+360, 360)
	s.GroundSpeed = lerp(a.GroundSpeed, b.GroundSpeed, min(f, 1))
	return s
}

func lerp(a, b, f float64) float64 { return a + (b-a)*f }
