// Package simobject keeps the simulator side bookkeeping of AI objects: one
// Object per remote aircraft or terrain probe and the Objects collection.
// Nothing here is safe for concurrent use; the traffic manager owns it.
package simobject

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
)

// Type is the kind of sim object.
type Type int

const (
	Aircraft Type = iota
	TerrainProbe
	AllTypes
)

func (t Type) String() string {
	switch t {
	case Aircraft:
		return "aircraft"
	case TerrainProbe:
		return "probe"
	case AllTypes:
		return "all"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Range returns the request id range of the type.
func (t Type) Range() simconnect.RequestRange {
	if t == TerrainProbe {
		return simconnect.ProbeRange
	}
	return simconnect.AircraftRange
}

// Camera is an optional camera attached to an object.
type Camera struct {
	GUID     uuid.UUID  `json:"guid"`
	Position [3]float64 `json:"position"` // x, y, z offset in meters
	Rotation [3]float64 `json:"rotation"` // pitch, bank, heading in degrees
}

// Object is the simulator side proxy of one remote aircraft or terrain probe.
// The zero value is the invalid object.
type Object struct {
	aircraft sim.Aircraft
	typ      Type

	requestID      uint32
	objectID       uint32
	validRequestID bool
	validObjectID  bool

	confirmedAdded     bool
	pendingRemoved     bool
	removedWhileAdding bool
	addedWhileRemoving bool
	created            time.Time

	addingExceptions      int
	addingDirectlyRemoved int

	lightsAsSent   sim.Lights
	currentLights  sim.Lights
	lightsBaseline bool
	lightsSent     bool
	lightsSentAt   time.Time

	partsAsSent sim.Parts
	partsSent   bool

	camera       *Camera
	observerName string
}

// New creates an object for aircraft with the request id allocated for it.
func New(ac sim.Aircraft, typ Type, requestID uint32, now time.Time) *Object {
	return &Object{
		aircraft:       ac,
		typ:            typ,
		requestID:      requestID,
		validRequestID: true,
		created:        now,
	}
}

// Callsign identifies the object in its collection.
func (o *Object) Callsign() string { return o.aircraft.Callsign }

// Aircraft is the aircraft snapshot taken when the object was created or updated.
func (o *Object) Aircraft() sim.Aircraft { return o.aircraft }

// ModelString is the simulator title the object was created with.
func (o *Object) ModelString() string { return o.aircraft.ModelString }

// Engines is the engine count of the aircraft.
func (o *Object) Engines() int { return o.aircraft.Engines }

// UpdateAircraft replaces the snapshot. The callsign must not change.
func (o *Object) UpdateAircraft(ac sim.Aircraft) {
	if ac.Callsign != o.aircraft.Callsign {
		return
	}
	o.aircraft = ac
}

func (o *Object) Type() Type           { return o.typ }
func (o *Object) IsAircraft() bool     { return o.typ == Aircraft }
func (o *Object) IsTerrainProbe() bool { return o.typ == TerrainProbe }

// IsInvalid is true for the sentinel returned by lookups that miss.
func (o *Object) IsInvalid() bool {
	return o == nil || (!o.validRequestID && !o.validObjectID)
}

func (o *Object) RequestID() uint32 { return o.requestID }
func (o *Object) ObjectID() uint32  { return o.objectID }

// RequestIDFor returns the id of a sub request of this object.
func (o *Object) RequestIDFor(sub simconnect.SimObjectRequest) uint32 {
	return o.typ.Range().ID(o.requestID, sub)
}

func (o *Object) HasValidRequestID() bool { return o.validRequestID }
func (o *Object) HasValidObjectID() bool  { return o.validObjectID }

// HasValidRequestAndObjectID is true once the simulator assigned an object id.
func (o *Object) HasValidRequestAndObjectID() bool {
	return o.validRequestID && o.validObjectID
}

// SetRequestID sets a new client request id.
func (o *Object) SetRequestID(id uint32) {
	o.requestID = id
	o.validRequestID = true
}

// SetObjectID records the simulator assigned object id.
func (o *Object) SetObjectID(id uint32) {
	o.objectID = id
	o.validObjectID = true
}

// IsConfirmedAdded is true once the add was verified.
func (o *Object) IsConfirmedAdded() bool { return o.confirmedAdded }

// SetConfirmedAdded confirms the object. Confirmation requires both ids;
// it returns false and leaves the object unconfirmed otherwise.
func (o *Object) SetConfirmedAdded(confirmed bool) bool {
	if confirmed && !o.HasValidRequestAndObjectID() {
		return false
	}
	o.confirmedAdded = confirmed
	if confirmed {
		o.removedWhileAdding = false
	}
	return true
}

// IsPendingAdded is true until the object has both ids and is confirmed.
func (o *Object) IsPendingAdded() bool {
	return !o.HasValidRequestAndObjectID() || !o.confirmedAdded
}

// IsOutdatedPendingAdded is true for pending objects created more than threshold before now.
func (o *Object) IsOutdatedPendingAdded(threshold time.Duration, now time.Time) bool {
	if !o.IsPendingAdded() {
		return false
	}
	return now.Sub(o.created) > threshold
}

func (o *Object) IsPendingRemoved() bool { return o.pendingRemoved }

// SetPendingRemoved marks a removal as requested. An object still pending added
// becomes removed-while-adding.
func (o *Object) SetPendingRemoved(pending bool) {
	if pending && o.IsPendingAdded() {
		o.removedWhileAdding = true
	}
	o.pendingRemoved = pending
	if pending {
		o.confirmedAdded = false
	}
}

func (o *Object) IsRemovedWhileAdding() bool     { return o.removedWhileAdding }
func (o *Object) SetRemovedWhileAdding(v bool)   { o.removedWhileAdding = v }
func (o *Object) IsAddedWhileRemoving() bool     { return o.addedWhileRemoving }
func (o *Object) SetAddedWhileRemoving(v bool)   { o.addedWhileRemoving = v }
func (o *Object) Created() time.Time             { return o.created }
func (o *Object) SetCreated(t time.Time)         { o.created = t }
func (o *Object) AddingExceptions() int          { return o.addingExceptions }
func (o *Object) AddingDirectlyRemoved() int     { return o.addingDirectlyRemoved }
func (o *Object) IncreaseAddingExceptions()      { o.addingExceptions++ }
func (o *Object) IncreaseAddingDirectlyRemoved() { o.addingDirectlyRemoved++ }

// CopyAddingFailureCounters carries the failure counters of other over.
func (o *Object) CopyAddingFailureCounters(other *Object) {
	o.addingExceptions = other.addingExceptions
	o.addingDirectlyRemoved = other.addingDirectlyRemoved
}

// IsReadyToSend is true for confirmed objects that are not on their way out.
func (o *Object) IsReadyToSend() bool {
	return !o.pendingRemoved && o.confirmedAdded && o.HasValidRequestAndObjectID()
}

// ResetToAddAgain clears everything the simulator told us about the object,
// keeping the aircraft and the failure counters. A new request id must be set.
func (o *Object) ResetToAddAgain(now time.Time) {
	ac, typ := o.aircraft, o.typ
	exceptions, removed := o.addingExceptions, o.addingDirectlyRemoved
	*o = Object{aircraft: ac, typ: typ, created: now}
	o.addingExceptions, o.addingDirectlyRemoved = exceptions, removed
}

// CurrentLights are the lights as last reported by the simulator.
func (o *Object) CurrentLights() sim.Lights { return o.currentLights }

// HasCurrentLights is true once the simulator reported a baseline.
func (o *Object) HasCurrentLights() bool { return o.lightsBaseline }

// SetCurrentLights records lights reported by the simulator.
func (o *Object) SetCurrentLights(l sim.Lights) {
	o.currentLights = l
	o.lightsBaseline = true
}

// LightsAsSent are the lights we last commanded.
func (o *Object) LightsAsSent() (sim.Lights, bool) { return o.lightsAsSent, o.lightsSent }

// SetLightsAsSent records lights commanded at now.
func (o *Object) SetLightsAsSent(l sim.Lights, now time.Time) {
	o.lightsAsSent = l
	o.lightsSent = true
	o.lightsSentAt = now
}

// LightsSentAt is when lights were last commanded.
func (o *Object) LightsSentAt() time.Time { return o.lightsSentAt }

// PartsAsSent are the parts we last wrote.
func (o *Object) PartsAsSent() (sim.Parts, bool) { return o.partsAsSent, o.partsSent }

// SetPartsAsSent records written parts.
func (o *Object) SetPartsAsSent(p sim.Parts) {
	o.partsAsSent = p
	o.partsSent = true
}

// Camera returns the attached camera, if any.
func (o *Object) Camera() (Camera, bool) {
	if o.camera == nil {
		return Camera{}, false
	}
	return *o.camera, true
}

// AttachCamera attaches a new camera and returns its GUID.
func (o *Object) AttachCamera(position, rotation [3]float64) uuid.UUID {
	o.camera = &Camera{GUID: uuid.New(), Position: position, Rotation: rotation}
	return o.camera.GUID
}

// DetachCamera removes the camera.
func (o *Object) DetachCamera() { o.camera = nil }

func (o *Object) ObserverName() string     { return o.observerName }
func (o *Object) SetObserverName(n string) { o.observerName = n }

func (o *Object) String() string {
	if o.IsInvalid() {
		return "invalid sim object"
	}
	return fmt.Sprintf("%s %s req:%d obj:%d(%t) confirmed:%t pendingRemoved:%t ex:%d dr:%d",
		o.typ, o.Callsign(), o.requestID, o.objectID, o.validObjectID,
		o.confirmedAdded, o.pendingRemoved, o.addingExceptions, o.addingDirectlyRemoved)
}

// Clone returns an independent copy, e.g. for send id traces.
func (o *Object) Clone() *Object {
	c := *o
	if o.camera != nil {
		cam := *o.camera
		c.camera = &cam
	}
	return &c
}

// Snapshot is a read only view of an object for status queries.
type Snapshot struct {
	Callsign              string     `json:"callsign"`
	Model                 string     `json:"model"`
	Type                  string     `json:"type"`
	RequestID             uint32     `json:"request_id"`
	ObjectID              uint32     `json:"object_id"`
	ValidObjectID         bool       `json:"valid_object_id"`
	ConfirmedAdded        bool       `json:"confirmed_added"`
	PendingRemoved        bool       `json:"pending_removed"`
	RemovedWhileAdding    bool       `json:"removed_while_adding"`
	AddedWhileRemoving    bool       `json:"added_while_removing"`
	Created               time.Time  `json:"created"`
	AddingExceptions      int        `json:"adding_exceptions"`
	AddingDirectlyRemoved int        `json:"adding_directly_removed"`
	Lights                sim.Lights `json:"lights"`
	LightsBaseline        bool       `json:"lights_baseline"`
	Camera                *Camera    `json:"camera,omitempty"`
	Observer              string     `json:"observer,omitempty"`
}

// Snapshot captures the current state.
func (o *Object) Snapshot() Snapshot {
	s := Snapshot{
		Callsign:              o.Callsign(),
		Model:                 o.ModelString(),
		Type:                  o.typ.String(),
		RequestID:             o.requestID,
		ObjectID:              o.objectID,
		ValidObjectID:         o.validObjectID,
		ConfirmedAdded:        o.confirmedAdded,
		PendingRemoved:        o.pendingRemoved,
		RemovedWhileAdding:    o.removedWhileAdding,
		AddedWhileRemoving:    o.addedWhileRemoving,
		Created:               o.created,
		AddingExceptions:      o.addingExceptions,
		AddingDirectlyRemoved: o.addingDirectlyRemoved,
		Lights:                o.currentLights,
		LightsBaseline:        o.lightsBaseline,
		Observer:              o.observerName,
	}
	if cam, ok := o.Camera(); ok {
		s.Camera = &cam
	}
	return s
}
