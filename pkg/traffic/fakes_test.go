package traffic

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"swiftgo/pkg/metrics"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/mocksim"
)

type fakeRemote struct {
	mu         sync.Mutex
	aircraft   map[string]sim.Aircraft
	parts      map[string]sim.Parts
	elevations map[string]float64
}

func newFakeRemote(aircraft ...sim.Aircraft) *fakeRemote {
	r := &fakeRemote{
		aircraft:   make(map[string]sim.Aircraft),
		parts:      make(map[string]sim.Parts),
		elevations: make(map[string]float64),
	}
	for _, ac := range aircraft {
		r.aircraft[ac.Callsign] = ac
		r.parts[ac.Callsign] = ac.Parts
	}
	return r
}

func (r *fakeRemote) RemoteAircraft() []sim.Aircraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sim.Aircraft, 0, len(r.aircraft))
	for _, ac := range r.aircraft {
		out = append(out, ac)
	}
	slices.SortFunc(out, func(a, b sim.Aircraft) int { return strings.Compare(a.Callsign, b.Callsign) })
	return out
}

func (r *fakeRemote) RemoteAircraftByCallsign(callsign string) (sim.Aircraft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.aircraft[callsign]
	return ac, ok
}

func (r *fakeRemote) InterpolatedSituation(callsign string, _ time.Time) (sim.Situation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.aircraft[callsign]
	if !ok || ac.Situation.IsNull() {
		return sim.Situation{}, false
	}
	return ac.Situation, true
}

func (r *fakeRemote) Parts(callsign string) (sim.Parts, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parts[callsign]
	return p, ok
}

func (r *fakeRemote) UpdateAircraftRendered(callsign string, rendered bool) bool {
	return r.update(callsign, func(ac *sim.Aircraft) { ac.Rendered = rendered })
}

func (r *fakeRemote) UpdateAircraftEnabled(callsign string, enabled bool) bool {
	return r.update(callsign, func(ac *sim.Aircraft) { ac.Enabled = enabled })
}

func (r *fakeRemote) RememberGroundElevation(callsign string, elevationFt float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aircraft[callsign]; !ok {
		return false
	}
	r.elevations[callsign] = elevationFt
	return true
}

func (r *fakeRemote) update(callsign string, fn func(*sim.Aircraft)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.aircraft[callsign]
	if !ok {
		return false
	}
	fn(&ac)
	r.aircraft[callsign] = ac
	return true
}

func (r *fakeRemote) get(callsign string) sim.Aircraft {
	ac, _ := r.RemoteAircraftByCallsign(callsign)
	return ac
}

func (r *fakeRemote) setLights(callsign string, l sim.Lights) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.parts[callsign]
	p.Lights = l
	r.parts[callsign] = p
}

func (r *fakeRemote) elevation(callsign string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elevations[callsign]
	return e, ok
}

type fakeOwn struct {
	mu  sync.Mutex
	own sim.OwnAircraft
}

func (o *fakeOwn) OwnAircraft() sim.OwnAircraft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.own
}

func (o *fakeOwn) UpdateOwnSituation(s sim.Situation, altitudeAGL float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.own.Situation = s
	o.own.AltitudeAGL = altitudeAGL
	o.own.Updated = s.Time
}

func (o *fakeOwn) UpdateOwnModel(title string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.own.ModelString = title
}

type failure struct {
	callsign string
	disabled bool
	message  string
}

type recordingListener struct {
	mu        sync.Mutex
	failures  []failure
	rendering []string // "+CS" or "-CS"
	states    []sim.State
}

func (l *recordingListener) PhysicallyAddingRemoteModelFailed(ac sim.Aircraft, disabled bool, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, failure{ac.Callsign, disabled, message})
}

func (l *recordingListener) ConnectionStatusChanged(_, to sim.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, to)
}

func (l *recordingListener) AircraftRenderingChanged(ac sim.Aircraft, rendered bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sign := "-"
	if rendered {
		sign = "+"
	}
	l.rendering = append(l.rendering, sign+ac.Callsign)
}

func (l *recordingListener) Failures() []failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.failures)
}

func (l *recordingListener) Rendering() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.rendering)
}

type fakeModels struct {
	mu       sync.Mutex
	disabled []string
}

func (f *fakeModels) Match(ac sim.Aircraft) string {
	if ac.ModelString != "" {
		return ac.ModelString
	}
	return "Airbus A320 Neo"
}

func (f *fakeModels) DisableModel(title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = append(f.disabled, title)
	return nil
}

type fakeElevations struct {
	mu sync.Mutex
	m  map[string]float64
}

func elevationKey(lat, lon float64) string { return fmt.Sprintf("%.3f,%.3f", lat, lon) }

func (f *fakeElevations) Elevation(lat, lon float64) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.m[elevationKey(lat, lon)]
	return e, ok
}

func (f *fakeElevations) StoreElevation(lat, lon, elevationFt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = make(map[string]float64)
	}
	f.m[elevationKey(lat, lon)] = elevationFt
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

// harness wires a manager to the mock simulator on a fake clock. Tests drive
// the loop with run instead of Run.
type harness struct {
	m          *Manager
	sim        *mocksim.Sim
	clock      *clock
	remote     *fakeRemote
	own        *fakeOwn
	listener   *recordingListener
	models     *fakeModels
	elevations *fakeElevations
}

type harnessOption func(*Config, *mocksim.Config)

func newHarness(t *testing.T, aircraft []sim.Aircraft, opts ...harnessOption) *harness {
	t.Helper()
	c := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	simCfg := mocksim.DefaultConfig()
	simCfg.Latency = 0
	simCfg.FirstObjectID = 500
	simCfg.Now = c.now

	cfg := DefaultConfig()
	cfg.ProbeTitle = ""
	for _, opt := range opts {
		opt(&cfg, &simCfg)
	}
	met, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	h := &harness{
		sim:        mocksim.New(simCfg),
		clock:      c,
		remote:     newFakeRemote(aircraft...),
		own:        &fakeOwn{},
		listener:   &recordingListener{},
		models:     &fakeModels{},
		elevations: &fakeElevations{},
	}
	h.m = New(cfg, Deps{
		API:       h.sim,
		Remote:    h.remote,
		Own:       h.own,
		Listener:  h.listener,
		Models:    h.models,
		Elevation: h.elevations,
		Metrics:   met,
		Now:       c.now,
	})
	require.True(t, h.m.connect(c.now()))
	return h
}

// run advances the clock in dispatch sized steps.
func (h *harness) run(d time.Duration) {
	for end := h.clock.t.Add(d); h.clock.t.Before(end); {
		h.clock.t = h.clock.t.Add(h.m.cfg.DispatchInterval)
		h.m.step(h.clock.t)
	}
}

func (h *harness) countCalls(prefix string) int {
	n := 0
	for _, c := range h.sim.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func aircraftAt(callsign string, lat, lon float64) sim.Aircraft {
	return sim.Aircraft{
		Callsign: callsign,
		ICAOType: "A320",
		Engines:  2,
		Enabled:  true,
		Situation: sim.Situation{
			Latitude:    lat,
			Longitude:   lon,
			AltitudeMSL: 2500,
			Heading:     250,
			GroundSpeed: 180,
		},
		Parts: sim.Parts{
			Lights:    sim.Lights{Nav: true, Beacon: true},
			GearDown:  true,
			EnginesOn: [sim.MaxEngines]bool{true, true},
		},
	}
}
