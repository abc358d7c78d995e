package traffic

import (
	"time"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
	"swiftgo/pkg/simobject"
)

// updateRemoteAircraft sends position, parts and lights of every confirmed
// aircraft.
func (m *Manager) updateRemoteAircraft(now time.Time) {
	for _, obj := range m.objects.Aircraft() {
		if !obj.IsReadyToSend() {
			continue
		}
		cs := obj.Callsign()
		s, ok := m.remote.InterpolatedSituation(cs, now)
		if !ok {
			continue
		}
		m.updatePosition(obj, s, now)

		parts, ok := m.remote.Parts(cs)
		if !ok {
			continue
		}
		m.updateParts(obj, parts, now)
		m.updateLights(obj, parts.Lights, now)
	}
}

func (m *Manager) updatePosition(obj *simobject.Object, s sim.Situation, now time.Time) {
	data, err := simconnect.MarshalData(simconnect.SetPositionData{Position: simconnect.NewInitPosition(s)})
	if err != nil {
		m.logger.Error("Encoding position failed", "callsign", obj.Callsign(), "error", err)
		return
	}
	if err := m.send(obj, "SetDataOnSimObject position", false, now, func() error {
		return m.api.SetDataOnSimObject(simconnect.DefinitionRemoteAircraftSetPosition, obj.ObjectID(), data)
	}); err != nil {
		m.logger.Debug("Sending position failed", "callsign", obj.Callsign(), "error", err)
	}
}

// updateParts writes the parts when anything but the lights changed.
func (m *Manager) updateParts(obj *simobject.Object, parts sim.Parts, now time.Time) {
	if sent, ok := obj.PartsAsSent(); ok && sent.EqualWithoutLights(parts) {
		return
	}
	data, err := simconnect.MarshalData(simconnect.NewPartsData(parts))
	if err != nil {
		m.logger.Error("Encoding parts failed", "callsign", obj.Callsign(), "error", err)
		return
	}
	if err := m.send(obj, "SetDataOnSimObject parts", false, now, func() error {
		return m.api.SetDataOnSimObject(simconnect.DefinitionRemoteAircraftPartsWithoutLights, obj.ObjectID(), data)
	}); err != nil {
		m.logger.Debug("Sending parts failed", "callsign", obj.Callsign(), "error", err)
		return
	}
	obj.SetPartsAsSent(parts)
}

// updateLights toggles the lights from what was last sent towards desired.
// Lights can only be toggled, so nothing is sent before the simulator
// reported a baseline.
func (m *Manager) updateLights(obj *simobject.Object, desired sim.Lights, now time.Time) {
	if !obj.HasCurrentLights() {
		return
	}
	base, sent := obj.LightsAsSent()
	if !sent {
		base = obj.CurrentLights()
	}
	if sent && base == desired {
		return
	}
	m.toggleLights(obj, base, desired, now)
	obj.SetLightsAsSent(desired, now)
}

func (m *Manager) toggleLights(obj *simobject.Object, from, to sim.Lights, now time.Time) {
	for _, ev := range simconnect.LightToggles(from, to) {
		if err := m.send(obj, "TransmitClientEvent "+ev.String(), false, now, func() error {
			return m.api.TransmitClientEvent(obj.ObjectID(), ev, 0)
		}); err != nil {
			m.logger.Debug("Toggling light failed", "callsign", obj.Callsign(), "event", ev, "error", err)
		}
	}
}

// onAircraftLights records the lights the simulator reports. Lights that
// drifted from what was sent, e.g. by an AI script, are toggled back.
func (m *Manager) onAircraftLights(obj *simobject.Object, msg simconnect.SimObjectData, now time.Time) {
	var d simconnect.LightsData
	if err := simconnect.UnmarshalData(msg.Data, &d); err != nil {
		m.logger.Warn("Bad lights data", "callsign", obj.Callsign(), "error", err)
		return
	}
	reported := d.Lights()
	obj.SetCurrentLights(reported)

	sent, ok := obj.LightsAsSent()
	if !ok || sent == reported || !obj.IsReadyToSend() {
		return
	}
	if wait := obj.LightsSentAt().Add(m.cfg.LightsSettle).Sub(now); wait > 0 {
		// may be sampled before our toggles arrived, read again once they settled
		cs, req := obj.Callsign(), obj.RequestID()
		m.after(wait, now, "lights reread", func(now time.Time) {
			if cur, ok := m.objects.Get(cs); ok && cur.RequestID() == req && cur.IsReadyToSend() {
				m.requestLights(cur, now)
			}
		})
		return
	}
	m.stats.LightResyncs++
	m.logger.Debug("Lights out of sync", "callsign", obj.Callsign(), "reported", reported, "sent", sent)
	m.toggleLights(obj, reported, sent, now)
	obj.SetLightsAsSent(sent, now)
}

// requestLights (re)subscribes to the lights of obj. The simulator answers
// a new subscription with a fresh report.
func (m *Manager) requestLights(obj *simobject.Object, now time.Time) {
	if err := m.send(obj, "RequestDataOnSimObject lights", false, now, func() error {
		return m.api.RequestDataOnSimObject(obj.RequestIDFor(simconnect.SimObjectLights), simconnect.DefinitionRemoteAircraftLights,
			obj.ObjectID(), simconnect.PERIOD_SECOND, simconnect.DATA_REQUEST_FLAG_CHANGED)
	}); err != nil {
		m.logger.Warn("Lights request failed", "callsign", obj.Callsign(), "error", err)
	}
}

func (m *Manager) onAircraftPosition(obj *simobject.Object, msg simconnect.SimObjectData, now time.Time) {
	var d simconnect.GetPositionData
	if err := simconnect.UnmarshalData(msg.Data, &d); err != nil {
		m.logger.Warn("Bad position data", "callsign", obj.Callsign(), "error", err)
		return
	}
	m.storeElevation(obj.Callsign(), d, now)
	if d.CGToGround > 0 {
		ac := obj.Aircraft()
		ac.CGFeet = d.CGToGround
		obj.UpdateAircraft(ac)
	}
}

// onAircraftModel checks the title the simulator actually loaded.
func (m *Manager) onAircraftModel(obj *simobject.Object, msg simconnect.SimObjectData, _ time.Time) {
	var d simconnect.TitleData
	if err := simconnect.UnmarshalData(msg.Data, &d); err != nil {
		m.logger.Warn("Bad model data", "callsign", obj.Callsign(), "error", err)
		return
	}
	title := d.String()
	if title == obj.ModelString() {
		return
	}
	m.logger.Info("Simulator loaded a different model", "callsign", obj.Callsign(), "requested", obj.ModelString(), "loaded", title)
	ac := obj.Aircraft()
	ac.ModelString = title
	obj.UpdateAircraft(ac)
}

// storeElevation caches a measured ground elevation and hands it to the
// provider for callsign.
func (m *Manager) storeElevation(callsign string, d simconnect.GetPositionData, now time.Time) {
	if d.Latitude == 0 && d.Longitude == 0 {
		return
	}
	if m.elevation != nil {
		m.elevation.StoreElevation(d.Latitude, d.Longitude, d.GroundElevation)
	}
	if callsign != "" && m.remote.RememberGroundElevation(callsign, d.GroundElevation) {
		m.elevationAsked[callsign] = now
	}
}
