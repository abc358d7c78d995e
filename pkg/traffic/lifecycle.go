package traffic

import (
	"fmt"
	"slices"
	"time"

	"swiftgo/pkg/geo"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
	"swiftgo/pkg/simobject"
)

// maxTailNumber is the longest tail number SimConnect accepts.
const maxTailNumber = 12

// physicallyAddRemoteAircraft queues ac for adding. Duplicates are ignored;
// an aircraft whose removal is in flight is added again once it is gone.
func (m *Manager) physicallyAddRemoteAircraft(ac sim.Aircraft, now time.Time) {
	if !m.state.IsConnected() || !ac.Valid() {
		return
	}
	if obj, ok := m.objects.Get(ac.Callsign); ok {
		if obj.IsPendingRemoved() && !obj.IsAddedWhileRemoving() {
			obj.SetAddedWhileRemoving(true)
			m.logger.Debug("Aircraft added while removing", "callsign", ac.Callsign)
		}
		return
	}
	if m.isQueued(ac.Callsign) {
		return
	}
	m.addQueue = append(m.addQueue, queuedAdd{callsign: ac.Callsign, notBefore: now})
}

func (m *Manager) isQueued(callsign string) bool {
	return slices.ContainsFunc(m.addQueue, func(q queuedAdd) bool { return q.callsign == callsign })
}

func (m *Manager) dropQueued(callsign string) {
	m.addQueue = slices.DeleteFunc(m.addQueue, func(q queuedAdd) bool { return q.callsign == callsign })
}

// processAddQueue starts queued adds, oldest first, while fewer than
// MaxPendingAdds creations are in flight.
func (m *Manager) processAddQueue(now time.Time) {
	for m.objects.CountPendingAdded(simobject.Aircraft) < m.cfg.MaxPendingAdds {
		idx := slices.IndexFunc(m.addQueue, func(q queuedAdd) bool { return !q.notBefore.After(now) })
		if idx < 0 {
			return
		}
		q := m.addQueue[idx]
		m.addQueue = slices.Delete(m.addQueue, idx, idx+1)

		ac, ok := m.remote.RemoteAircraftByCallsign(q.callsign)
		if !ok || !ac.Enabled {
			m.logger.Debug("Queued aircraft no longer wanted", "callsign", q.callsign)
			continue
		}
		if m.objects.Contains(q.callsign) {
			continue
		}
		m.addToSimulator(ac, q.obj, now)
	}
}

// nextRequestID returns a base id of typ not used by a live object.
func (m *Manager) nextRequestID(typ simobject.Type) uint32 {
	ids := m.aircraftIDs
	if typ == simobject.TerrainProbe {
		ids = m.probeIDs
	}
	id := ids.Next()
	for i := uint32(0); i < ids.Range().Slots && !m.objects.ForRequestID(id).IsInvalid(); i++ {
		id = ids.Next()
	}
	return id
}

func tailNumber(callsign string) string {
	if len(callsign) > maxTailNumber {
		return callsign[:maxTailNumber]
	}
	return callsign
}

// addToSimulator creates the AI aircraft. obj is a reset object from an
// earlier attempt or nil.
func (m *Manager) addToSimulator(ac sim.Aircraft, obj *simobject.Object, now time.Time) {
	if m.models != nil {
		ac.ModelString = m.models.Match(ac)
	}
	if ac.ModelString == "" {
		ac.ModelString = m.cfg.DefaultModel
	}
	if ac.ModelString == "" {
		m.failedPermanently(simobject.New(ac, simobject.Aircraft, 0, now), "no model", now)
		return
	}

	id := m.nextRequestID(simobject.Aircraft)
	if obj == nil {
		obj = simobject.New(ac, simobject.Aircraft, id, now)
	} else {
		obj.UpdateAircraft(ac)
		obj.SetRequestID(id)
		obj.SetCreated(now)
	}

	s, ok := m.remote.InterpolatedSituation(ac.Callsign, now)
	if !ok {
		s = ac.Situation
	}
	pos := simconnect.NewInitPosition(s)
	err := m.send(obj, "AICreateNonATCAircraft "+ac.ModelString, true, now, func() error {
		return m.api.AICreateNonATCAircraft(ac.ModelString, tailNumber(ac.Callsign), pos, obj.RequestIDFor(simconnect.SimObjectAdd))
	})
	if err != nil {
		m.logger.Error("Adding aircraft failed", "callsign", ac.Callsign, "error", err)
		obj.IncreaseAddingExceptions()
		m.retryOrFail(obj, obj.AddingExceptions() > ThresholdAddException, err.Error(), now)
		return
	}
	m.objects.Insert(obj)
	m.stats.AddRequests++
	m.metrics.AddRequested()
	m.logger.Debug("Adding aircraft", "callsign", ac.Callsign, "model", ac.ModelString, "request", obj.RequestID())
}

// setObjectID handles the object id assigned for base request id.
func (m *Manager) setObjectID(base, objectID uint32, now time.Time) {
	obj := m.objects.ForRequestID(base)
	if obj.IsInvalid() {
		// not ours any more, e.g. swept as outdated
		m.logger.Debug("Object id for unknown request", "request", base, "object", objectID)
		return
	}
	if obj.HasValidObjectID() {
		m.logger.Debug("Duplicate object id", "callsign", obj.Callsign(), "object", objectID)
		return
	}
	obj.SetObjectID(objectID)
	m.objects.Insert(obj)

	if obj.IsPendingRemoved() {
		// the network dropped it while we were adding
		m.removeFromSimulator(obj, now)
		return
	}

	cs, req := obj.Callsign(), obj.RequestID()
	if obj.IsTerrainProbe() {
		m.after(m.cfg.VerifyDelay, now, "verify probe", func(now time.Time) { m.verifyAddedTerrainProbe(cs, req, now) })
		return
	}
	m.after(m.cfg.VerifyDelay, now, "verify aircraft", func(now time.Time) { m.verifyAddedRemoteAircraft(cs, req, now) })
}

// verifyAddedRemoteAircraft confirms an add that survived the verify delay.
func (m *Manager) verifyAddedRemoteAircraft(callsign string, requestID uint32, now time.Time) {
	obj, ok := m.objects.Get(callsign)
	if !ok || obj.RequestID() != requestID {
		return
	}
	if obj.IsPendingRemoved() || obj.IsConfirmedAdded() || !obj.HasValidObjectID() {
		return
	}
	ac, wanted := m.remote.RemoteAircraftByCallsign(callsign)
	if !wanted || !ac.Enabled {
		m.physicallyRemoveRemoteAircraft(callsign, now)
		return
	}
	if !obj.SetConfirmedAdded(true) {
		return
	}

	m.initAIObject(obj, now)
	m.requestObjectData(obj, now)
	m.stats.Added++

	rendered := obj.Aircraft()
	rendered.Rendered = true
	m.remote.UpdateAircraftRendered(callsign, true)
	m.listener.AircraftRenderingChanged(rendered, true)
	m.logger.Info("Added aircraft", "callsign", callsign, "model", obj.ModelString(), "object", obj.ObjectID(),
		"attempts", 1+obj.AddingExceptions()+obj.AddingDirectlyRemoved())
}

// initAIObject takes the object away from the simulator AI and freezes it,
// positions come from us only.
func (m *Manager) initAIObject(obj *simobject.Object, now time.Time) {
	req := obj.RequestIDFor(simconnect.SimObjectMisc)
	if err := m.send(obj, "AIReleaseControl", false, now, func() error {
		return m.api.AIReleaseControl(obj.ObjectID(), req)
	}); err != nil {
		m.logger.Warn("Release control failed", "callsign", obj.Callsign(), "error", err)
	}
	for _, ev := range []simconnect.EventID{simconnect.EventFreezeLatLng, simconnect.EventFreezeAltitude, simconnect.EventFreezeAttitude} {
		if err := m.send(obj, "freeze", false, now, func() error {
			return m.api.TransmitClientEvent(obj.ObjectID(), ev, 1)
		}); err != nil {
			m.logger.Warn("Freeze failed", "callsign", obj.Callsign(), "error", err)
		}
	}
}

func (m *Manager) requestObjectData(obj *simobject.Object, now time.Time) {
	m.requestLights(obj, now)
	reqs := []struct {
		sub    simconnect.SimObjectRequest
		def    simconnect.DefineID
		period simconnect.Period
		flags  uint32
	}{
		{simconnect.SimObjectPositionData, simconnect.DefinitionRemoteAircraftGetPosition, simconnect.PERIOD_ONCE, simconnect.DATA_REQUEST_FLAG_DEFAULT},
		{simconnect.SimObjectModel, simconnect.DefinitionRemoteAircraftModel, simconnect.PERIOD_ONCE, simconnect.DATA_REQUEST_FLAG_DEFAULT},
	}
	for _, r := range reqs {
		if err := m.send(obj, "RequestDataOnSimObject "+r.sub.String(), false, now, func() error {
			return m.api.RequestDataOnSimObject(obj.RequestIDFor(r.sub), r.def, obj.ObjectID(), r.period, r.flags)
		}); err != nil {
			m.logger.Warn("Data request failed", "callsign", obj.Callsign(), "error", err)
		}
	}
}

// physicallyRemoveRemoteAircraft removes callsign from the simulator. The
// object stays until the simulator reports the removal.
func (m *Manager) physicallyRemoveRemoteAircraft(callsign string, now time.Time) bool {
	m.dropQueued(callsign)
	obj, ok := m.objects.Get(callsign)
	if !ok {
		return false
	}
	if obj.IsPendingRemoved() {
		obj.SetAddedWhileRemoving(false)
		return true
	}
	wasRendered := obj.IsConfirmedAdded()
	obj.SetPendingRemoved(true)
	// the outdated sweep times the removal from here
	obj.SetCreated(now)
	if wasRendered {
		m.markUnrendered(obj)
	}
	if obj.HasValidObjectID() {
		m.removeFromSimulator(obj, now)
	}
	return true
}

func (m *Manager) removeFromSimulator(obj *simobject.Object, now time.Time) {
	err := m.send(obj, "AIRemoveObject", true, now, func() error {
		return m.api.AIRemoveObject(obj.ObjectID(), obj.RequestIDFor(simconnect.SimObjectRemove))
	})
	if err != nil {
		m.logger.Warn("Removing object failed", "callsign", obj.Callsign(), "error", err)
		m.removeObject(obj)
		return
	}
	m.stats.RemoveRequests++
	m.metrics.RemoveRequested()
}

// removeObject erases obj if it is still the object of its callsign.
func (m *Manager) removeObject(obj *simobject.Object) {
	if _, ok := m.liveObject(obj); ok {
		m.objects.Remove(obj.Callsign())
	}
}

// liveObject returns the current object of obj's callsign if it is obj
// itself or a copy of it, e.g. taken by a send id trace.
func (m *Manager) liveObject(obj *simobject.Object) (*simobject.Object, bool) {
	cur, ok := m.objects.Get(obj.Callsign())
	if !ok {
		return nil, false
	}
	if cur == obj || (cur.HasValidRequestID() && obj.HasValidRequestID() && cur.RequestID() == obj.RequestID()) {
		return cur, true
	}
	return nil, false
}

// simulatorReportedObjectRemoved handles the ObjectRemoved system event.
func (m *Manager) simulatorReportedObjectRemoved(objectID uint32, now time.Time) {
	obj := m.objects.ForObjectID(objectID)
	if obj.IsInvalid() {
		return // not ours
	}
	cs := obj.Callsign()

	if obj.IsPendingRemoved() {
		m.objects.Remove(cs)
		m.logger.Debug("Removed object", "callsign", cs, "object", objectID)
		if obj.IsAddedWhileRemoving() {
			if ac, ok := m.remote.RemoteAircraftByCallsign(cs); ok {
				m.physicallyAddRemoteAircraft(ac, now)
			}
		}
		return
	}

	if obj.IsTerrainProbe() {
		m.probeFailed(obj, "removed by simulator", now)
		return
	}

	m.stats.SimulatorRemovals++
	m.metrics.SimulatorRemoved()
	// a confirmed object younger than OutdatedPending still counts as
	// removed directly after adding
	if !obj.IsConfirmedAdded() || now.Sub(obj.Created()) < m.cfg.OutdatedPending {
		if obj.IsConfirmedAdded() {
			m.markUnrendered(obj)
		}
		obj.IncreaseAddingDirectlyRemoved()
		m.metrics.AddFailed("removed")
		m.logger.Info("Aircraft removed directly after adding", "callsign", cs, "model", obj.ModelString(), "count", obj.AddingDirectlyRemoved())
		m.retryOrFail(obj, obj.AddingDirectlyRemoved() > ThresholdAddedAndDirectlyRemoved,
			"removed by the simulator directly after adding", now)
		return
	}

	m.logger.Warn("Simulator removed aircraft, adding it again", "callsign", cs, "object", objectID)
	m.markUnrendered(obj)
	m.resetToAddAgain(obj, now)
}

// addingAircraftFailed handles CREATE_OBJECT_FAILED for the traced object.
func (m *Manager) addingAircraftFailed(traced *simobject.Object, now time.Time) {
	obj, ok := m.liveObject(traced)
	if !ok {
		m.logger.Debug("Creation failure for stale object", "callsign", traced.Callsign())
		return
	}
	obj.IncreaseAddingExceptions()
	m.metrics.AddFailed("exception")
	m.logger.Info("Creating aircraft failed", "callsign", obj.Callsign(), "model", obj.ModelString(), "count", obj.AddingExceptions())
	m.retryOrFail(obj, obj.AddingExceptions() > ThresholdAddException, "simulator could not create the object", now)
}

func (m *Manager) retryOrFail(obj *simobject.Object, exhausted bool, reason string, now time.Time) {
	if exhausted {
		m.failedPermanently(obj, reason, now)
		return
	}
	m.resetToAddAgain(obj, now)
}

// resetToAddAgain drops obj and queues its aircraft again after
// AddAgainDelay, keeping the failure counters.
func (m *Manager) resetToAddAgain(obj *simobject.Object, now time.Time) {
	m.removeObject(obj)
	cs := obj.Callsign()
	obj.ResetToAddAgain(now)
	m.dropQueued(cs)
	m.addQueue = append(m.addQueue, queuedAdd{callsign: cs, obj: obj, notBefore: now.Add(m.cfg.AddAgainDelay)})
}

// failedPermanently gives up on an aircraft: it is disabled in the provider,
// its model is disabled and listeners are told.
func (m *Manager) failedPermanently(obj *simobject.Object, reason string, now time.Time) {
	m.removeObject(obj)
	m.dropQueued(obj.Callsign())
	ac := obj.Aircraft()
	cs := ac.Callsign
	m.stats.PermanentFailures++

	m.remote.UpdateAircraftRendered(cs, false)
	m.remote.UpdateAircraftEnabled(cs, false)
	if m.models != nil && ac.ModelString != "" {
		if err := m.models.DisableModel(ac.ModelString, reason); err != nil {
			m.logger.Warn("Failed to disable model", "model", ac.ModelString, "error", err)
		}
	}
	msg := fmt.Sprintf("Model %q for %s could not be added: %s (exceptions: %d, removed directly: %d)",
		ac.ModelString, cs, reason, obj.AddingExceptions(), obj.AddingDirectlyRemoved())
	m.logger.Warn("Giving up on aircraft", "callsign", cs, "reason", msg)
	ac.Enabled, ac.Rendered = false, false
	m.listener.PhysicallyAddingRemoteModelFailed(ac, true, msg)
}

// sweepOutdated drops objects whose add was never confirmed.
func (m *Manager) sweepOutdated(now time.Time) {
	for _, obj := range m.objects.RemoveOutdatedPendingAdded(simobject.AllTypes, now) {
		cs := obj.Callsign()
		switch {
		case obj.IsPendingRemoved():
			m.logger.Debug("Removal not reported, dropping object", "callsign", cs)
			if obj.IsAddedWhileRemoving() {
				if ac, ok := m.remote.RemoteAircraftByCallsign(cs); ok {
					m.physicallyAddRemoteAircraft(ac, now)
				}
			}
		case obj.IsTerrainProbe():
			m.probeFailed(obj, "not confirmed in time", now)
		default:
			obj.IncreaseAddingDirectlyRemoved()
			m.stats.AddTimeouts++
			m.metrics.AddFailed("timeout")
			msg := fmt.Sprintf("Adding %s timed out after %s", cs, m.cfg.OutdatedPending)
			m.logger.Warn("Outdated pending aircraft", "callsign", cs, "model", obj.ModelString())
			if obj.HasValidObjectID() {
				if err := m.send(obj, "AIRemoveObject outdated", true, now, func() error {
					return m.api.AIRemoveObject(obj.ObjectID(), obj.RequestIDFor(simconnect.SimObjectRemove))
				}); err != nil {
					m.logger.Warn("Removing outdated object failed", "callsign", cs, "error", err)
				} else {
					m.stats.RemoveRequests++
					m.metrics.RemoveRequested()
				}
			}
			exhausted := obj.AddingDirectlyRemoved() > ThresholdAddedAndDirectlyRemoved
			if !exhausted {
				m.listener.PhysicallyAddingRemoteModelFailed(obj.Aircraft(), false, msg)
			}
			m.retryOrFail(obj, exhausted, "not confirmed in time", now)
		}
	}
}

func (m *Manager) markUnrendered(obj *simobject.Object) {
	ac := obj.Aircraft()
	ac.Rendered = false
	m.remote.UpdateAircraftRendered(ac.Callsign, false)
	m.listener.AircraftRenderingChanged(ac, false)
}

// reconcile matches the objects against the nearest enabled aircraft.
func (m *Manager) reconcile(now time.Time) {
	wanted := m.wantedAircraft()
	want := make(map[string]bool, len(wanted))
	for _, ac := range wanted {
		want[ac.Callsign] = true
	}

	for _, cs := range m.objects.Callsigns(simobject.Aircraft) {
		if !want[cs] {
			m.physicallyRemoveRemoteAircraft(cs, now)
		}
	}
	m.addQueue = slices.DeleteFunc(m.addQueue, func(q queuedAdd) bool { return !want[q.callsign] })
	for _, ac := range wanted {
		if obj, ok := m.objects.Get(ac.Callsign); ok && !obj.IsPendingRemoved() {
			ac.ModelString = obj.ModelString()
			obj.UpdateAircraft(ac)
			continue
		}
		m.physicallyAddRemoteAircraft(ac, now)
	}
}

// wantedAircraft returns the enabled aircraft to render, nearest first,
// limited by MaxAircraft and MaxRangeNM around the own aircraft.
func (m *Manager) wantedAircraft() []sim.Aircraft {
	var candidates []sim.Aircraft
	for _, ac := range m.remote.RemoteAircraft() {
		if ac.Valid() && ac.Enabled && !ac.Situation.IsNull() {
			candidates = append(candidates, ac)
		}
	}

	var own sim.OwnAircraft
	if m.own != nil {
		own = m.own.OwnAircraft()
	}
	if own.Situation.IsNull() {
		slices.SortFunc(candidates, func(a, b sim.Aircraft) int {
			switch {
			case a.Callsign < b.Callsign:
				return -1
			case a.Callsign > b.Callsign:
				return 1
			}
			return 0
		})
		if len(candidates) > m.cfg.MaxAircraft {
			candidates = candidates[:m.cfg.MaxAircraft]
		}
		return candidates
	}

	origin := geo.Point{Lat: own.Situation.Latitude, Lon: own.Situation.Longitude}
	points := make([]geo.Point, len(candidates))
	for i, ac := range candidates {
		points[i] = geo.Point{Lat: ac.Situation.Latitude, Lon: ac.Situation.Longitude}
	}
	ranked := geo.Nearest(origin, points, m.cfg.MaxAircraft, m.cfg.MaxRangeNM*geo.MetersPerNM)
	out := make([]sim.Aircraft, len(ranked))
	for i, r := range ranked {
		out[i] = candidates[r.Index]
	}
	return out
}
