package traffic

import (
	"fmt"
	"time"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
	"swiftgo/pkg/simobject"
)

const (
	// probeTimeout is how long one probe measurement may take.
	probeTimeout = 3 * time.Second
	// maxProbeJobs bounds the probe queue.
	maxProbeJobs = 20
)

type elevationJob struct {
	callsign string
	lat, lon float64
}

// probeState tracks the terrain probe, a simulated object moved around to
// measure ground elevation where no rendered aircraft is.
type probeState struct {
	created   int
	failures  int
	disabled  bool
	creating  bool
	jobs      []elevationJob
	busy      *elevationJob
	busySince time.Time
}

func (m *Manager) probeObject() *simobject.Object {
	return m.objects.Oldest(simobject.TerrainProbe)
}

// createProbe adds the terrain probe near the own aircraft.
func (m *Manager) createProbe(now time.Time) {
	if m.cfg.ProbeTitle == "" || m.probe.disabled || m.probe.creating || !m.probeObject().IsInvalid() {
		return
	}
	if m.own == nil {
		return
	}
	own := m.own.OwnAircraft()
	if own.Situation.IsNull() {
		return
	}

	m.probe.created++
	ac := sim.Aircraft{
		Callsign:    fmt.Sprintf("PROBE#%d", m.probe.created),
		ModelString: m.cfg.ProbeTitle,
		Enabled:     true,
		Situation:   own.Situation,
	}
	obj := simobject.New(ac, simobject.TerrainProbe, m.nextRequestID(simobject.TerrainProbe), now)
	s := own.Situation
	s.OnGround = true
	err := m.send(obj, "AICreateSimulatedObject "+ac.ModelString, true, now, func() error {
		return m.api.AICreateSimulatedObject(ac.ModelString, simconnect.NewInitPosition(s), obj.RequestIDFor(simconnect.SimObjectAdd))
	})
	if err != nil {
		m.probeFailed(obj, err.Error(), now)
		return
	}
	m.objects.Insert(obj)
	m.logger.Debug("Adding terrain probe", "callsign", ac.Callsign, "title", ac.ModelString)
}

// verifyAddedTerrainProbe confirms the probe after the verify delay.
func (m *Manager) verifyAddedTerrainProbe(callsign string, requestID uint32, now time.Time) {
	obj, ok := m.objects.Get(callsign)
	if !ok || obj.RequestID() != requestID || obj.IsConfirmedAdded() {
		return
	}
	if !obj.SetConfirmedAdded(true) {
		return
	}
	m.initAIObject(obj, now)
	m.probe.failures = 0
	m.logger.Info("Terrain probe ready", "callsign", callsign, "object", obj.ObjectID())
}

// probeFailed drops the probe. It is created once more, then it stays
// disabled until the next connection.
func (m *Manager) probeFailed(obj *simobject.Object, reason string, now time.Time) {
	m.removeObject(obj)
	m.probe.busy = nil
	m.probe.failures++
	if m.probe.failures > ThresholdAddException {
		m.probe.disabled = true
		m.probe.jobs = nil
		m.logger.Warn("Terrain probe disabled", "title", m.cfg.ProbeTitle, "reason", reason)
		return
	}
	m.logger.Info("Terrain probe failed, adding again", "callsign", obj.Callsign(), "reason", reason)
	m.probe.creating = true
	m.after(m.cfg.AddAgainDelay, now, "recreate probe", func(now time.Time) {
		m.probe.creating = false
		m.createProbe(now)
	})
}

// requestElevations asks for ground elevations of the wanted aircraft, at
// most once per ElevationRefresh and callsign. Rendered aircraft measure
// themselves, the cache or the probe serve the others.
func (m *Manager) requestElevations(now time.Time) {
	for _, ac := range m.remote.RemoteAircraft() {
		if !ac.Enabled || ac.Situation.IsNull() {
			continue
		}
		cs := ac.Callsign
		if at, ok := m.elevationAsked[cs]; ok && now.Sub(at) < m.cfg.ElevationRefresh {
			continue
		}

		if m.elevation != nil {
			if elv, ok := m.elevation.Elevation(ac.Situation.Latitude, ac.Situation.Longitude); ok {
				m.remote.RememberGroundElevation(cs, elv)
				m.elevationAsked[cs] = now
				m.metrics.ElevationRequested("cache")
				continue
			}
		}

		if obj, ok := m.objects.Get(cs); ok && obj.IsReadyToSend() {
			if err := m.send(obj, "RequestDataOnSimObject position", false, now, func() error {
				return m.api.RequestDataOnSimObject(obj.RequestIDFor(simconnect.SimObjectPositionData),
					simconnect.DefinitionRemoteAircraftGetPosition, obj.ObjectID(), simconnect.PERIOD_ONCE, simconnect.DATA_REQUEST_FLAG_DEFAULT)
			}); err == nil {
				m.elevationAsked[cs] = now
				m.metrics.ElevationRequested("aircraft")
			}
			continue
		}

		if m.probe.disabled || m.cfg.ProbeTitle == "" || len(m.probe.jobs) >= maxProbeJobs {
			continue
		}
		m.probe.jobs = append(m.probe.jobs, elevationJob{callsign: cs, lat: ac.Situation.Latitude, lon: ac.Situation.Longitude})
		m.elevationAsked[cs] = now
		m.metrics.ElevationRequested("probe")
	}
}

// serveProbe moves the probe to the next queued position and asks for the
// elevation there. One measurement runs at a time.
func (m *Manager) serveProbe(now time.Time) {
	if m.cfg.ProbeTitle == "" || m.probe.disabled {
		return
	}
	obj := m.probeObject()
	if obj.IsInvalid() {
		m.createProbe(now)
		return
	}
	if !obj.IsReadyToSend() {
		return
	}
	if m.probe.busy != nil {
		if now.Sub(m.probe.busySince) < probeTimeout {
			return
		}
		m.logger.Debug("Probe measurement timed out", "callsign", m.probe.busy.callsign)
		m.probe.busy = nil
	}
	if len(m.probe.jobs) == 0 {
		return
	}
	job := m.probe.jobs[0]
	m.probe.jobs = m.probe.jobs[1:]

	pos := simconnect.NewInitPosition(sim.Situation{Latitude: job.lat, Longitude: job.lon, OnGround: true})
	data, err := simconnect.MarshalData(simconnect.SetPositionData{Position: pos})
	if err != nil {
		m.logger.Error("Encoding probe position failed", "error", err)
		return
	}
	if err := m.send(obj, "SetDataOnSimObject probe", false, now, func() error {
		return m.api.SetDataOnSimObject(simconnect.DefinitionRemoteAircraftSetPosition, obj.ObjectID(), data)
	}); err != nil {
		m.logger.Debug("Moving probe failed", "error", err)
		return
	}
	if err := m.send(obj, "RequestDataOnSimObject probe", false, now, func() error {
		return m.api.RequestDataOnSimObject(obj.RequestIDFor(simconnect.SimObjectPositionData),
			simconnect.DefinitionRemoteAircraftGetPosition, obj.ObjectID(), simconnect.PERIOD_ONCE, simconnect.DATA_REQUEST_FLAG_DEFAULT)
	}); err != nil {
		m.logger.Debug("Probe request failed", "error", err)
		return
	}
	m.probe.busy = &job
	m.probe.busySince = now
}

func (m *Manager) onProbePosition(_ *simobject.Object, msg simconnect.SimObjectData, now time.Time) {
	var d simconnect.GetPositionData
	if err := simconnect.UnmarshalData(msg.Data, &d); err != nil {
		m.logger.Warn("Bad probe data", "error", err)
		return
	}
	job := m.probe.busy
	m.probe.busy = nil
	if job == nil {
		return
	}
	m.storeElevation(job.callsign, d, now)
	m.logger.Debug("Probed elevation", "callsign", job.callsign, "elevation_ft", d.GroundElevation)
}
