// Package mocksim is an in-process fake of the SimConnect API. It keeps AI
// objects, answers data requests, raises exceptions with send ids and
// reproduces the simulator quirks the traffic manager has to survive.
package mocksim

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
)

// Config holds the behavior of the mock simulator.
type Config struct {
	AppName string

	// Own aircraft start and movement stages
	StartLat       float64
	StartLon       float64
	StartAlt       float64
	StartHeading   float64
	DurationParked time.Duration
	DurationTaxi   time.Duration

	// Latency delays every asynchronous answer.
	Latency time.Duration
	// MaxObjects is the AI object ceiling. Objects beyond it get an id
	// assigned and are removed right away. 0 means unlimited.
	MaxObjects int
	// FailTitles raise CREATE_OBJECT_FAILED when used for AI creation.
	FailTitles []string
	// GroundElevation in feet, reported for every position.
	GroundElevation float64
	// Unavailable makes Open fail.
	Unavailable bool
	// FirstObjectID is the first object id handed out, 1000 if 0.
	FirstObjectID uint32

	// Now is the clock, time.Now if nil.
	Now func() time.Time
}

// DefaultConfig returns a mock that parks at Frankfurt and then departs.
func DefaultConfig() Config {
	return Config{
		AppName:         "SwiftGo MockSim",
		StartLat:        50.0379,
		StartLon:        8.5622,
		StartAlt:        364,
		StartHeading:    250,
		DurationParked:  30 * time.Second,
		DurationTaxi:    60 * time.Second,
		Latency:         20 * time.Millisecond,
		GroundElevation: 364,
	}
}

type queued struct {
	at   time.Time
	data []byte
}

type dataRequest struct {
	requestID uint32
	defineID  simconnect.DefineID
	objectID  uint32
	period    simconnect.Period
	flags     uint32
	last      time.Time
	lastData  []byte
}

// Object is an AI object living in the mock.
type Object struct {
	ObjectID  uint32
	RequestID uint32
	Title     string
	Tail      string
	Simulated bool // created by AICreateSimulatedObject
	Position  simconnect.InitPosition
	Parts     simconnect.PartsData
	Lights    sim.Lights
	Released  bool
	Frozen    int // number of freeze events received
}

var _ simconnect.API = (*Sim)(nil)

// Sim implements simconnect.API.
type Sim struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	open     bool
	sendID   uint32
	queue    []queued
	defs     map[simconnect.DefineID][]simconnect.Datum
	mapped   map[simconnect.EventID]string
	subs     map[simconnect.EventID]string
	requests []*dataRequest

	objects      map[uint32]*Object
	nextObjectID uint32

	own  ownAircraft
	last time.Time

	calls []string
}

// New creates a closed mock simulator.
func New(cfg Config) *Sim {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	first := cfg.FirstObjectID
	if first == 0 {
		first = 1000
	}
	s := &Sim{
		cfg:          cfg,
		now:          now,
		objects:      make(map[uint32]*Object),
		nextObjectID: first,
	}
	s.own = newOwnAircraft(cfg, now())
	return s
}

func (s *Sim) record(format string, args ...any) {
	s.sendID++
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *Sim) enqueue(m simconnect.Message) {
	b, err := simconnect.Encode(m)
	if err != nil {
		panic(err) // mock bug
	}
	s.queue = append(s.queue, queued{at: s.now().Add(s.cfg.Latency), data: b})
}

func (s *Sim) exception(ex simconnect.Exception, sendID uint32) {
	s.enqueue(simconnect.RecvException{
		Recv:      simconnect.Recv{ID: simconnect.RECV_ID_EXCEPTION},
		Exception: ex,
		SendID:    sendID,
		Index:     simconnect.Unused,
	})
}

func (s *Sim) objectEvent(ev simconnect.EventID, objectID uint32) {
	if _, ok := s.subs[ev]; !ok {
		return
	}
	s.enqueue(simconnect.RecvEventObjectAddRemove{
		RecvEvent: simconnect.RecvEvent{
			Recv:    simconnect.Recv{ID: simconnect.RECV_ID_EVENT_OBJECT_ADDREMOVE},
			GroupID: simconnect.Unused,
			EventID: uint32(ev),
			Data:    objectID,
		},
		ObjectType: simconnect.SIMOBJECT_TYPE_AIRCRAFT,
	})
}

func (s *Sim) checkOpen() error {
	if !s.open {
		return fmt.Errorf("mocksim: %w", sim.ErrNotConnected)
	}
	return nil
}

// Open connects to the mock.
func (s *Sim) Open(appName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Unavailable {
		return fmt.Errorf("SimConnect_Open failed: mock unavailable (0x%x)", uint32(simconnect.EFAIL))
	}
	s.open = true
	s.sendID = 0
	s.queue = nil
	s.defs = make(map[simconnect.DefineID][]simconnect.Datum)
	s.mapped = make(map[simconnect.EventID]string)
	s.subs = make(map[simconnect.EventID]string)
	s.requests = nil
	s.calls = nil
	s.last = s.now()
	s.record("Open %s", appName)

	var open simconnect.RecvOpen
	open.ID = simconnect.RECV_ID_OPEN
	copy(open.ApplicationName[:], s.cfg.AppName)
	open.SimConnectVersionMajor = 11
	s.enqueue(open)
	return nil
}

// Close disconnects. AI objects of the session vanish.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.queue = nil
	s.objects = make(map[uint32]*Object)
	return nil
}

func (s *Sim) AddToDataDefinition(defineID simconnect.DefineID, datumName, unitsName string, datumType simconnect.DataType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("AddToDataDefinition %d %s", defineID, datumName)
	s.defs[defineID] = append(s.defs[defineID], simconnect.Datum{Name: datumName, Unit: unitsName, Type: datumType})
	return nil
}

func (s *Sim) definitionSize(id simconnect.DefineID) int {
	n := 0
	for _, d := range s.defs[id] {
		n += d.Type.Size()
	}
	return n
}

func (s *Sim) RequestDataOnSimObject(requestID uint32, defineID simconnect.DefineID, objectID uint32, period simconnect.Period, flags uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("RequestDataOnSimObject %d def:%d obj:%d period:%d", requestID, defineID, objectID, period)
	sendID := s.sendID

	s.requests = slices.DeleteFunc(s.requests, func(r *dataRequest) bool { return r.requestID == requestID })
	if period == simconnect.PERIOD_NEVER {
		return nil
	}
	if _, ok := s.defs[defineID]; !ok {
		s.exception(simconnect.EXCEPTION_UNRECOGNIZED_ID, sendID)
		return nil
	}
	if objectID != simconnect.OBJECT_ID_USER {
		if _, ok := s.objects[objectID]; !ok {
			s.exception(simconnect.EXCEPTION_UNRECOGNIZED_ID, sendID)
			return nil
		}
	}
	r := &dataRequest{requestID: requestID, defineID: defineID, objectID: objectID, period: period, flags: flags}
	s.requests = append(s.requests, r)
	s.serve(r, s.now())
	if period == simconnect.PERIOD_ONCE {
		s.requests = slices.DeleteFunc(s.requests, func(x *dataRequest) bool { return x == r })
	}
	return nil
}

func (s *Sim) SetDataOnSimObject(defineID simconnect.DefineID, objectID uint32, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("SetDataOnSimObject def:%d obj:%d", defineID, objectID)
	sendID := s.sendID

	obj, ok := s.objects[objectID]
	if !ok {
		s.exception(simconnect.EXCEPTION_UNRECOGNIZED_ID, sendID)
		return nil
	}
	if len(data) != s.definitionSize(defineID) {
		s.exception(simconnect.EXCEPTION_INVALID_DATA_SIZE, sendID)
		return nil
	}
	switch defineID {
	case simconnect.DefinitionRemoteAircraftSetPosition:
		var d simconnect.SetPositionData
		if err := simconnect.UnmarshalData(data, &d); err == nil {
			obj.Position = d.Position
		}
	case simconnect.DefinitionRemoteAircraftPartsWithoutLights:
		_ = simconnect.UnmarshalData(data, &obj.Parts)
	case simconnect.DefinitionRemoteAircraftLights:
		// lights are read only for AI aircraft
		s.exception(simconnect.EXCEPTION_DATA_ERROR, sendID)
	}
	return nil
}

func (s *Sim) create(title, tail string, pos simconnect.InitPosition, requestID uint32, simulated bool) {
	sendID := s.sendID
	if slices.Contains(s.cfg.FailTitles, title) {
		s.exception(simconnect.EXCEPTION_CREATE_OBJECT_FAILED, sendID)
		return
	}
	id := s.nextObjectID
	s.nextObjectID++
	s.enqueue(simconnect.RecvAssignedObjectID{
		Recv:      simconnect.Recv{ID: simconnect.RECV_ID_ASSIGNED_OBJECT_ID},
		RequestID: requestID,
		ObjectID:  id,
	})
	s.objectEvent(simconnect.EventObjectAdded, id)

	if s.cfg.MaxObjects > 0 && len(s.objects) >= s.cfg.MaxObjects {
		// over the ceiling the simulator drops the object right after assigning it
		s.objectEvent(simconnect.EventObjectRemoved, id)
		return
	}
	s.objects[id] = &Object{
		ObjectID:  id,
		RequestID: requestID,
		Title:     title,
		Tail:      tail,
		Simulated: simulated,
		Position:  pos,
	}
}

func (s *Sim) AICreateNonATCAircraft(containerTitle, tailNumber string, initPos simconnect.InitPosition, requestID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("AICreateNonATCAircraft %s %s %d", containerTitle, tailNumber, requestID)
	s.create(containerTitle, tailNumber, initPos, requestID, false)
	return nil
}

func (s *Sim) AICreateSimulatedObject(containerTitle string, initPos simconnect.InitPosition, requestID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("AICreateSimulatedObject %s %d", containerTitle, requestID)
	s.create(containerTitle, "", initPos, requestID, true)
	return nil
}

func (s *Sim) AIRemoveObject(objectID, requestID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("AIRemoveObject %d %d", objectID, requestID)
	if _, ok := s.objects[objectID]; !ok {
		s.exception(simconnect.EXCEPTION_UNRECOGNIZED_ID, s.sendID)
		return nil
	}
	s.removeObject(objectID)
	return nil
}

func (s *Sim) removeObject(objectID uint32) {
	delete(s.objects, objectID)
	s.requests = slices.DeleteFunc(s.requests, func(r *dataRequest) bool { return r.objectID == objectID })
	s.objectEvent(simconnect.EventObjectRemoved, objectID)
}

func (s *Sim) AIReleaseControl(objectID, requestID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("AIReleaseControl %d %d", objectID, requestID)
	obj, ok := s.objects[objectID]
	if !ok {
		s.exception(simconnect.EXCEPTION_UNRECOGNIZED_ID, s.sendID)
		return nil
	}
	obj.Released = true
	return nil
}

func (s *Sim) MapClientEventToSimEvent(eventID simconnect.EventID, eventName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("MapClientEventToSimEvent %d %s", eventID, eventName)
	s.mapped[eventID] = eventName
	return nil
}

func (s *Sim) TransmitClientEvent(objectID uint32, eventID simconnect.EventID, data uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("TransmitClientEvent obj:%d ev:%d", objectID, eventID)
	if _, ok := s.mapped[eventID]; !ok {
		s.exception(simconnect.EXCEPTION_UNRECOGNIZED_ID, s.sendID)
		return nil
	}
	obj, ok := s.objects[objectID]
	if !ok {
		s.exception(simconnect.EXCEPTION_UNRECOGNIZED_ID, s.sendID)
		return nil
	}
	switch eventID {
	case simconnect.EventFreezeLatLng, simconnect.EventFreezeAltitude, simconnect.EventFreezeAttitude:
		obj.Frozen++
	default:
		obj.Lights = simconnect.ApplyToggle(obj.Lights, eventID)
	}
	return nil
}

// SubscribeToSystemEvent records a subscription.
func (s *Sim) SubscribeToSystemEvent(eventID simconnect.EventID, eventName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.record("SubscribeToSystemEvent %d %s", eventID, eventName)
	s.subs[eventID] = eventName
	return nil
}

func (s *Sim) LastSentPacketID() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.sendID, nil
}

// NextDispatch advances the simulation to now and returns the next due message.
func (s *Sim) NextDispatch() (simconnect.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	now := s.now()
	if dt := now.Sub(s.last); dt > 0 {
		s.own.advance(dt, now)
		s.last = now
	}
	for _, r := range s.requests {
		s.serve(r, now)
	}

	for i, q := range s.queue {
		if q.at.After(now) {
			continue
		}
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		return simconnect.Decode(q.data)
	}
	return nil, nil
}

// serve answers a data request if it is due.
func (s *Sim) serve(r *dataRequest, now time.Time) {
	switch r.period {
	case simconnect.PERIOD_ONCE:
		if !r.last.IsZero() {
			return
		}
	case simconnect.PERIOD_SECOND:
		if !r.last.IsZero() && now.Sub(r.last) < time.Second {
			return
		}
	}
	payload, ok := s.payload(r.defineID, r.objectID)
	if !ok {
		return
	}
	r.last = now
	if r.flags&simconnect.DATA_REQUEST_FLAG_CHANGED != 0 && r.lastData != nil && slices.Equal(r.lastData, payload) {
		return
	}
	r.lastData = payload
	s.enqueue(simconnect.SimObjectData{
		RecvSimobjectData: simconnect.RecvSimobjectData{
			Recv:        simconnect.Recv{ID: simconnect.RECV_ID_SIMOBJECT_DATA},
			RequestID:   r.requestID,
			ObjectID:    r.objectID,
			DefineID:    uint32(r.defineID),
			Flags:       r.flags,
			EntryNumber: 1,
			OutOf:       1,
			DefineCount: uint32(len(s.defs[r.defineID])),
		},
		Data: payload,
	})
}

func (s *Sim) payload(def simconnect.DefineID, objectID uint32) ([]byte, bool) {
	var v any
	if objectID == simconnect.OBJECT_ID_USER {
		switch def {
		case simconnect.DefinitionOwnAircraft:
			v = s.own.data(s.cfg.GroundElevation)
		case simconnect.DefinitionOwnAircraftTitle:
			var t simconnect.TitleData
			copy(t.Title[:], "Mock Cessna Skyhawk")
			v = t
		}
	} else if obj, ok := s.objects[objectID]; ok {
		switch def {
		case simconnect.DefinitionRemoteAircraftLights:
			v = simconnect.NewLightsData(obj.Lights)
		case simconnect.DefinitionRemoteAircraftGetPosition:
			v = simconnect.GetPositionData{
				Latitude:        obj.Position.Latitude,
				Longitude:       obj.Position.Longitude,
				AltitudeMSL:     obj.Position.AltitudeMSL,
				AltitudeAGL:     obj.Position.AltitudeMSL - s.cfg.GroundElevation,
				GroundElevation: s.cfg.GroundElevation,
				CGToGround:      6,
			}
		case simconnect.DefinitionRemoteAircraftModel:
			var t simconnect.TitleData
			copy(t.Title[:], obj.Title)
			v = t
		}
	}
	if v == nil {
		return nil, false
	}
	b, err := simconnect.MarshalData(v)
	if err != nil {
		return nil, false
	}
	return b, true
}
