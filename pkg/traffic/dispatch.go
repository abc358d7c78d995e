package traffic

import (
	"fmt"
	"time"

	"swiftgo/pkg/logging"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
	"swiftgo/pkg/simobject"
)

const (
	// maxMessagesPerDispatch bounds one queue drain so the loop stays responsive.
	maxMessagesPerDispatch = 1000
	// exceptionTraceDepth is how many calls up to a failed one are logged.
	exceptionTraceDepth = 20
)

type recvHandler func(msg simconnect.Message, now time.Time)

type dataHandler func(obj *simobject.Object, data simconnect.SimObjectData, now time.Time)

type dataKey struct {
	typ simobject.Type
	sub simconnect.SimObjectRequest
}

// on adapts a handler for one concrete message type. Decode guarantees the
// type behind each receive id, so a mismatch is dropped.
func on[T simconnect.Message](fn func(T, time.Time)) recvHandler {
	return func(msg simconnect.Message, now time.Time) {
		if v, ok := msg.(T); ok {
			fn(v, now)
		}
	}
}

func (m *Manager) initHandlers() {
	m.recvHandlers = map[simconnect.RecvID]recvHandler{
		simconnect.RECV_ID_OPEN:                   on(m.onOpen),
		simconnect.RECV_ID_QUIT:                   on(m.onQuit),
		simconnect.RECV_ID_EXCEPTION:              on(m.onException),
		simconnect.RECV_ID_EVENT:                  on(m.onEvent),
		simconnect.RECV_ID_EVENT_OBJECT_ADDREMOVE: on(m.onObjectAddRemove),
		simconnect.RECV_ID_SIMOBJECT_DATA:         on(m.onSimObjectData),
		simconnect.RECV_ID_SIMOBJECT_DATA_BYTYPE:  on(m.onSimObjectData),
		simconnect.RECV_ID_ASSIGNED_OBJECT_ID:     on(m.onAssignedObjectID),
	}
	m.dataHandlers = map[dataKey]dataHandler{
		{simobject.Aircraft, simconnect.SimObjectLights}:           m.onAircraftLights,
		{simobject.Aircraft, simconnect.SimObjectPositionData}:     m.onAircraftPosition,
		{simobject.Aircraft, simconnect.SimObjectModel}:            m.onAircraftModel,
		{simobject.TerrainProbe, simconnect.SimObjectPositionData}: m.onProbePosition,
	}
	m.fixedData = map[uint32]func(simconnect.SimObjectData, time.Time){
		simconnect.RequestOwnAircraft:      m.onOwnAircraft,
		simconnect.RequestOwnAircraftTitle: m.onOwnAircraftTitle,
	}
}

// dispatch drains the simulator queue and returns the number of messages.
func (m *Manager) dispatch(now time.Time) (int, error) {
	start := time.Now()
	n := 0
	defer func() {
		d := time.Since(start)
		m.metrics.ObserveDispatch(d)
		m.stats.observeDispatch(d, n)
	}()

	for n < maxMessagesPerDispatch {
		msg, err := m.api.NextDispatch()
		if err != nil {
			return n, err
		}
		if msg == nil {
			return n, nil
		}
		n++
		m.lastMessage = now
		m.handle(msg, now)
		if !m.state.IsConnected() {
			return n, nil
		}
	}
	return n, nil
}

func (m *Manager) handle(msg simconnect.Message, now time.Time) {
	start := time.Now()
	id := msg.RecvID()
	m.metrics.Message(id.String())

	h, ok := m.recvHandlers[id]
	if !ok {
		m.logger.Debug("Unhandled message", "recv", id)
		return
	}
	m.exec(id.String(), func(now time.Time) { h(msg, now) }, now)
	m.stats.observeMessage(time.Since(start))
}

func (m *Manager) onOpen(msg simconnect.RecvOpen, _ time.Time) {
	m.logger.Info("SimConnect session opened",
		"app", msg.Name(),
		"version", fmt.Sprintf("%d.%d", msg.ApplicationVersionMajor, msg.ApplicationVersionMinor),
		"simconnect", fmt.Sprintf("%d.%d", msg.SimConnectVersionMajor, msg.SimConnectVersionMinor))
}

func (m *Manager) onQuit(_ simconnect.RecvQuit, now time.Time) {
	m.logger.Info("Simulator quit detected")
	m.disconnect("quit", now)
}

func (m *Manager) onEvent(msg simconnect.RecvEvent, now time.Time) {
	switch simconnect.EventID(msg.EventID) {
	case simconnect.EventSimStop:
		m.logger.Info("Simulator stopped")
		m.disconnect("sim stop", now)
	case simconnect.EventPause:
		if msg.Data != 0 {
			m.setState(sim.StatePaused)
		} else {
			m.setState(sim.StateSimulating)
		}
	}
}

func (m *Manager) onObjectAddRemove(msg simconnect.RecvEventObjectAddRemove, now time.Time) {
	switch simconnect.EventID(msg.EventID) {
	case simconnect.EventObjectAdded:
		// all clients and the simulator itself add objects, ours are tracked
		// through the assigned object id
	case simconnect.EventObjectRemoved:
		m.simulatorReportedObjectRemoved(msg.Data, now)
	}
}

func (m *Manager) onAssignedObjectID(msg simconnect.RecvAssignedObjectID, now time.Time) {
	for _, typ := range []simobject.Type{simobject.Aircraft, simobject.TerrainProbe} {
		base, sub, ok := typ.Range().Decode(msg.RequestID)
		if !ok {
			continue
		}
		if sub != simconnect.SimObjectAdd {
			m.logger.Debug("Object id for unexpected sub request", "request", msg.RequestID, "sub", sub)
			return
		}
		m.setObjectID(base, msg.ObjectID, now)
		return
	}
	m.logger.Debug("Object id for foreign request", "request", msg.RequestID, "object", msg.ObjectID)
}

// onSimObjectData routes data by fixed request id, then by object type and
// sub request decoded from the request id.
func (m *Manager) onSimObjectData(msg simconnect.SimObjectData, now time.Time) {
	if h, ok := m.fixedData[msg.RequestID]; ok {
		h(msg, now)
		return
	}
	for _, typ := range []simobject.Type{simobject.Aircraft, simobject.TerrainProbe} {
		base, sub, ok := typ.Range().Decode(msg.RequestID)
		if !ok {
			continue
		}
		obj := m.objects.ForRequestID(base)
		if obj.IsInvalid() || obj.Type() != typ {
			m.logger.Debug("Data for unknown object", "request", msg.RequestID)
			return
		}
		if obj.HasValidObjectID() && obj.ObjectID() != msg.ObjectID {
			m.logger.Debug("Data for stale object", "callsign", obj.Callsign(), "object", msg.ObjectID)
			return
		}
		h, ok := m.dataHandlers[dataKey{typ, sub}]
		if !ok {
			m.logger.Debug("No handler for data", "type", typ, "sub", sub)
			return
		}
		h(obj, msg, now)
		return
	}
	m.logger.Debug("Data for foreign request", "request", msg.RequestID)
}

func (m *Manager) onOwnAircraft(msg simconnect.SimObjectData, now time.Time) {
	var d simconnect.OwnAircraftData
	if err := simconnect.UnmarshalData(msg.Data, &d); err != nil {
		m.logger.Warn("Bad own aircraft data", "error", err)
		return
	}
	s := d.Situation()
	s.Time = now
	if m.own != nil {
		m.own.UpdateOwnSituation(s, d.AltitudeAGL)
	}
	if m.state == sim.StateConnected {
		m.setState(sim.StateSimulating)
	}
}

func (m *Manager) onOwnAircraftTitle(msg simconnect.SimObjectData, _ time.Time) {
	var d simconnect.TitleData
	if err := simconnect.UnmarshalData(msg.Data, &d); err != nil {
		m.logger.Warn("Bad own aircraft title", "error", err)
		return
	}
	m.logger.Info("Own aircraft model", "title", d.String())
	if m.own != nil {
		m.own.UpdateOwnModel(d.String())
	}
}

func (m *Manager) onException(msg simconnect.RecvException, now time.Time) {
	m.stats.Exceptions++
	m.metrics.Exception(msg.Exception.String())
	trace, found := m.traces.Find(msg.SendID)
	m.traces.AutoEnable(now)

	if found {
		m.dumpTraces(msg)
	}

	if msg.Exception == simconnect.EXCEPTION_CREATE_OBJECT_FAILED && found && !trace.Object.IsInvalid() {
		if trace.Object.IsTerrainProbe() {
			if probe, ok := m.liveObject(trace.Object); ok {
				m.probeFailed(probe, "creation failed", now)
			}
		} else {
			m.addingAircraftFailed(trace.Object, now)
		}
		return
	}

	m.exceptionsLogged++
	if m.exceptionsLogged > IgnoreReceiveExceptions {
		return
	}
	attrs := []any{"exception", msg.Exception, "send_id", msg.SendID, "index", msg.Index}
	if found {
		attrs = append(attrs, "operation", trace.Comment, "callsign", trace.Object.Callsign())
	}
	m.logger.Warn("SimConnect exception", attrs...)
	if m.exceptionsLogged == IgnoreReceiveExceptions {
		m.logger.Warn("Too many SimConnect exceptions, not logging any more")
	}
}

// dumpTraces writes the calls up to the failing one to the trace log.
func (m *Manager) dumpTraces(msg simconnect.RecvException) {
	leading := m.traces.Leading(msg.SendID, exceptionTraceDepth)
	entries := make([]logging.TraceEntry, len(leading))
	for i, tr := range leading {
		entries[i] = logging.TraceEntry{SendID: tr.SendID, Comment: tr.Comment, At: tr.At, Object: tr.Object.String()}
	}
	reason := fmt.Sprintf("%s send_id:%d index:%d", msg.Exception, msg.SendID, msg.Index)
	logging.DumpTraces(m.traceLogger, reason, entries)
}
