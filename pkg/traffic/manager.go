// Package traffic is the AI object manager. It mirrors the remote aircraft
// wanted by the network into the simulator as AI objects, tracks each
// object through the asynchronous add/remove protocol of SimConnect and
// keeps position, parts and lights of the rendered aircraft up to date.
//
// All simulator calls and all bookkeeping run on the goroutine executing
// Run. Other goroutines talk to the manager through commands and read a
// published Status snapshot.
package traffic

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"swiftgo/pkg/metrics"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
	"swiftgo/pkg/simobject"
)

// Models resolves simulator titles and blacklists the ones that fail.
type Models interface {
	Match(ac sim.Aircraft) string
	DisableModel(title, reason string) error
}

// ElevationCache stores measured ground elevations by position.
type ElevationCache interface {
	Elevation(lat, lon float64) (float64, bool)
	StoreElevation(lat, lon, elevationFt float64)
}

// Deps are the collaborators of a Manager. API, Remote and Own are required.
type Deps struct {
	API       simconnect.API
	Remote    sim.RemoteAircraftProvider
	Own       sim.OwnAircraftProvider
	Listener  sim.StatusListener
	Models    Models
	Elevation ElevationCache
	Metrics   *metrics.Metrics
	// TraceLogger receives send id traces of exceptions, the main logger if nil.
	TraceLogger *slog.Logger
	Now         func() time.Time
}

type queuedAdd struct {
	callsign  string
	obj       *simobject.Object // reset object carrying failure counters, nil for a first add
	notBefore time.Time
}

type deferredCall struct {
	at   time.Time
	name string
	fn   func(now time.Time)
}

// Manager is the AI object lifecycle manager.
type Manager struct {
	cfg         Config
	api         simconnect.API
	remote      sim.RemoteAircraftProvider
	own         sim.OwnAircraftProvider
	listener    sim.StatusListener
	models      Models
	elevation   ElevationCache
	metrics     *metrics.Metrics
	logger      *slog.Logger
	traceLogger *slog.Logger
	now         func() time.Time

	cmds chan func(now time.Time)
	done chan struct{}

	recvHandlers map[simconnect.RecvID]recvHandler
	dataHandlers map[dataKey]dataHandler
	fixedData    map[uint32]func(simconnect.SimObjectData, time.Time)

	// loop state
	state              sim.State
	objects            *simobject.Objects
	aircraftIDs        *simconnect.RequestIDs
	probeIDs           *simconnect.RequestIDs
	traces             *SendIDTraces
	addQueue           []queuedAdd
	deferred           []deferredCall
	probe              probeState
	elevationAsked     map[string]time.Time
	lastMessage        time.Time
	lastConnectAttempt time.Time
	lastReconcile      time.Time
	lastUpdate         time.Time
	exceptionsLogged   int
	stats              Stats

	status atomic.Pointer[Status]
}

// New creates a disconnected manager.
func New(cfg Config, deps Deps) *Manager {
	cfg = cfg.withDefaults()
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := slog.Default().With("component", "traffic")
	traceLogger := deps.TraceLogger
	if traceLogger == nil {
		traceLogger = logger
	}

	m := &Manager{
		cfg:            cfg,
		api:            deps.API,
		remote:         deps.Remote,
		own:            deps.Own,
		listener:       deps.Listener,
		models:         deps.Models,
		elevation:      deps.Elevation,
		metrics:        deps.Metrics,
		logger:         logger,
		traceLogger:    traceLogger,
		now:            now,
		cmds:           make(chan func(time.Time), 256),
		done:           make(chan struct{}),
		state:          sim.StateDisconnected,
		objects:        simobject.NewObjects(),
		aircraftIDs:    simconnect.NewRequestIDs(simconnect.AircraftRange),
		probeIDs:       simconnect.NewRequestIDs(simconnect.ProbeRange),
		traces:         NewSendIDTraces(cfg.MaxSendIDTraces),
		elevationAsked: make(map[string]time.Time),
	}
	if m.listener == nil {
		m.listener = sim.StatusListeners(nil)
	}
	m.objects.SetOutdatedThreshold(cfg.OutdatedPending)
	m.traces.SetPermanent(cfg.TraceSendIDs)
	m.initHandlers()
	m.publish(now())
	return m
}

// Run connects to the simulator and drives the dispatch loop until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	defer func() { m.disconnect("shutdown", m.now()) }()

	ticker := time.NewTicker(m.cfg.DispatchInterval)
	defer ticker.Stop()

	m.connect(m.now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-m.cmds:
			m.exec("command", fn, m.now())
		case <-ticker.C:
			now := m.now()
			if !m.state.IsConnected() {
				if now.Sub(m.lastConnectAttempt) >= m.cfg.ReconnectInterval {
					m.connect(now)
				}
				continue
			}
			m.step(now)
		}
	}
}

// step is one loop iteration: drain the simulator queue, then run deferred
// and periodic work.
func (m *Manager) step(now time.Time) {
	m.drainCommands(now)
	if !m.state.IsConnected() {
		return
	}

	n, err := m.dispatch(now)
	if err != nil {
		m.logger.Error("Dispatch failed", "error", err)
		m.disconnect("dispatch error", now)
		return
	}
	if !m.state.IsConnected() {
		return
	}
	if n == 0 && now.Sub(m.lastMessage) > m.cfg.WatchdogTimeout {
		m.logger.Warn("Watchdog timeout, resetting connection", "silence", now.Sub(m.lastMessage))
		m.disconnect("watchdog", now)
		return
	}

	m.runDeferred(now)
	if now.Sub(m.lastReconcile) >= m.cfg.ReconcileInterval {
		m.lastReconcile = now
		m.sweepOutdated(now)
		m.reconcile(now)
		m.requestElevations(now)
	}
	m.processAddQueue(now)
	if now.Sub(m.lastUpdate) >= m.cfg.UpdateInterval {
		m.lastUpdate = now
		m.updateRemoteAircraft(now)
		m.serveProbe(now)
		m.publish(now)
	}
}

func (m *Manager) drainCommands(now time.Time) {
	for {
		select {
		case fn := <-m.cmds:
			m.exec("command", fn, now)
		default:
			return
		}
	}
}

// exec runs fn and turns a panic into a log line.
func (m *Manager) exec(name string, fn func(time.Time), now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			m.stats.Panics++
			m.logger.Error("Recovered from panic", "in", name, "panic", r)
		}
	}()
	fn(now)
}

func (m *Manager) connect(now time.Time) bool {
	m.lastConnectAttempt = now
	if err := m.api.Open(m.cfg.AppName); err != nil {
		m.logger.Debug("Connection failed", "error", err)
		return false
	}
	m.lastMessage = now
	m.lastReconcile = now
	m.stats.Connects++
	m.setState(sim.StateConnected)
	m.logger.Info("SimConnect connected")

	if err := m.setup(now); err != nil {
		m.logger.Error("Failed to set up SimConnect session", "error", err)
		m.disconnect("setup failed", now)
		return false
	}
	return true
}

func (m *Manager) setup(now time.Time) error {
	if err := simconnect.RegisterDefinitions(m.api); err != nil {
		return err
	}
	for _, ev := range simconnect.SimEvents {
		if err := m.api.MapClientEventToSimEvent(ev.ID, ev.Name); err != nil {
			return fmt.Errorf("map %s: %w", ev.Name, err)
		}
	}
	for _, ev := range simconnect.SystemEvents {
		if err := m.api.SubscribeToSystemEvent(ev.ID, ev.Name); err != nil {
			return fmt.Errorf("subscribe %s: %w", ev.Name, err)
		}
	}
	if err := m.api.RequestDataOnSimObject(simconnect.RequestOwnAircraft, simconnect.DefinitionOwnAircraft,
		simconnect.OBJECT_ID_USER, simconnect.PERIOD_SECOND, simconnect.DATA_REQUEST_FLAG_DEFAULT); err != nil {
		return fmt.Errorf("request own aircraft: %w", err)
	}
	if err := m.api.RequestDataOnSimObject(simconnect.RequestOwnAircraftTitle, simconnect.DefinitionOwnAircraftTitle,
		simconnect.OBJECT_ID_USER, simconnect.PERIOD_SECOND, simconnect.DATA_REQUEST_FLAG_CHANGED); err != nil {
		return fmt.Errorf("request own aircraft title: %w", err)
	}
	m.createProbe(now)
	return nil
}

// disconnect closes the session and forgets every object; the simulator
// drops the AI objects of a closed client itself.
func (m *Manager) disconnect(reason string, now time.Time) {
	if !m.state.IsConnected() {
		return
	}
	for _, obj := range m.objects.Aircraft() {
		if obj.IsConfirmedAdded() {
			m.markUnrendered(obj)
		}
	}
	m.objects.Clear()
	m.addQueue = nil
	m.deferred = nil
	m.traces.Clear()
	m.probe = probeState{}
	clear(m.elevationAsked)
	m.exceptionsLogged = 0

	if err := m.api.Close(); err != nil {
		m.logger.Debug("Close failed", "error", err)
	}
	m.lastConnectAttempt = now
	m.logger.Info("SimConnect disconnected", "reason", reason)
	m.setState(sim.StateDisconnected)
	m.publish(now)
}

func (m *Manager) setState(to sim.State) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	m.metrics.SetConnected(to.IsConnected())
	m.logger.Debug("Simulator state changed", "from", from, "to", to)
	m.listener.ConnectionStatusChanged(from, to)
}

// after schedules fn on the loop once d has passed.
func (m *Manager) after(d time.Duration, now time.Time, name string, fn func(time.Time)) {
	m.deferred = append(m.deferred, deferredCall{at: now.Add(d), name: name, fn: fn})
}

func (m *Manager) runDeferred(now time.Time) {
	var due []deferredCall
	keep := m.deferred[:0]
	for _, c := range m.deferred {
		if c.at.After(now) {
			keep = append(keep, c)
		} else {
			due = append(due, c)
		}
	}
	m.deferred = keep
	for _, c := range due {
		m.exec(c.name, c.fn, now)
	}
}

// send performs one simulator call and records its send id when tracing
// is active or force is set.
func (m *Manager) send(obj *simobject.Object, comment string, force bool, now time.Time, call func() error) error {
	if err := call(); err != nil {
		m.stats.CallErrors++
		return fmt.Errorf("%s: %w", comment, err)
	}
	if !force && !m.traces.Active(now) {
		return nil
	}
	id, err := m.api.LastSentPacketID()
	if err != nil {
		return nil
	}
	m.traces.Record(id, obj, comment, now)
	return nil
}

// submit hands fn to the loop. It blocks while the command queue is full
// and returns false once Run has ended.
func (m *Manager) submit(fn func(time.Time)) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.cmds <- fn:
		return true
	case <-m.done:
		return false
	}
}

// PhysicallyAddRemoteAircraft asks for callsign to be added, subject to the
// pending add limit.
func (m *Manager) PhysicallyAddRemoteAircraft(callsign string) bool {
	return m.submit(func(now time.Time) {
		if ac, ok := m.remote.RemoteAircraftByCallsign(callsign); ok {
			m.physicallyAddRemoteAircraft(ac, now)
		}
	})
}

// PhysicallyRemoveRemoteAircraft asks for callsign to be removed.
func (m *Manager) PhysicallyRemoveRemoteAircraft(callsign string) bool {
	return m.submit(func(now time.Time) { m.physicallyRemoveRemoteAircraft(callsign, now) })
}

// PhysicallyRemoveAllRemoteAircraft removes every aircraft. Reconciliation
// adds the wanted ones back.
func (m *Manager) PhysicallyRemoveAllRemoteAircraft() bool {
	return m.submit(func(now time.Time) {
		for _, cs := range m.objects.Callsigns(simobject.Aircraft) {
			m.physicallyRemoveRemoteAircraft(cs, now)
		}
	})
}

// SetTracing switches permanent send id tracing.
func (m *Manager) SetTracing(on bool) bool {
	return m.submit(func(time.Time) { m.traces.SetPermanent(on) })
}

// SetMaxAircraft changes how many aircraft reconciliation keeps rendered.
// Surplus aircraft are removed on the next reconcile.
func (m *Manager) SetMaxAircraft(n int) bool {
	if n <= 0 {
		return false
	}
	return m.submit(func(time.Time) { m.cfg.MaxAircraft = n })
}

// Traces returns the send id traces, most recent first.
func (m *Manager) Traces(ctx context.Context) ([]TraceInfo, error) {
	reply := make(chan []TraceInfo, 1)
	if !m.submit(func(time.Time) { reply <- traceInfos(m.traces.All()) }) {
		return nil, ErrStopped
	}
	select {
	case out := <-reply:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AttachCamera attaches a camera to the rendered aircraft callsign and names
// the observer looking through it. It returns the GUID of the camera.
func (m *Manager) AttachCamera(ctx context.Context, callsign, observer string, position, rotation [3]float64) (uuid.UUID, error) {
	type result struct {
		guid uuid.UUID
		err  error
	}
	reply := make(chan result, 1)
	if !m.submit(func(time.Time) {
		obj, ok := m.objects.Get(callsign)
		if !ok || !obj.IsReadyToSend() {
			reply <- result{err: fmt.Errorf("%w: %s", ErrNotRendered, callsign)}
			return
		}
		guid := obj.AttachCamera(position, rotation)
		obj.SetObserverName(observer)
		m.logger.Info("Camera attached", "callsign", callsign, "observer", observer, "guid", guid)
		reply <- result{guid: guid}
	}) {
		return uuid.Nil, ErrStopped
	}
	select {
	case r := <-reply:
		return r.guid, r.err
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

// DetachCamera removes the camera and observer of callsign.
func (m *Manager) DetachCamera(callsign string) bool {
	return m.submit(func(time.Time) {
		if obj, ok := m.objects.Get(callsign); ok {
			obj.DetachCamera()
			obj.SetObserverName("")
		}
	})
}

// Camera returns the object snapshot of callsign including its camera.
func (m *Manager) Camera(ctx context.Context, callsign string) (simobject.Snapshot, error) {
	type result struct {
		snap simobject.Snapshot
		ok   bool
	}
	reply := make(chan result, 1)
	if !m.submit(func(time.Time) {
		obj, ok := m.objects.Get(callsign)
		if !ok {
			reply <- result{}
			return
		}
		_, hasCam := obj.Camera()
		reply <- result{snap: obj.Snapshot(), ok: hasCam}
	}) {
		return simobject.Snapshot{}, ErrStopped
	}
	select {
	case r := <-reply:
		if !r.ok {
			return simobject.Snapshot{}, fmt.Errorf("%w: %s", ErrNoCamera, callsign)
		}
		return r.snap, nil
	case <-ctx.Done():
		return simobject.Snapshot{}, ctx.Err()
	}
}
