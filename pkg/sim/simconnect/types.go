package simconnect

import "bytes"

// Message is one dispatched SIMCONNECT_RECV_* structure, tagged by its receive ID.
// The concrete type behind a tag is fixed: see Decode.
type Message interface {
	RecvID() RecvID
}

// Recv is the base struct for all received messages.
type Recv struct {
	Size    uint32
	Version uint32
	ID      RecvID
}

// RecvID implements Message.
func (r Recv) RecvID() RecvID { return r.ID }

// RecvOpen is received when connection is established.
type RecvOpen struct {
	Recv
	ApplicationName         [256]byte
	ApplicationVersionMajor uint32
	ApplicationVersionMinor uint32
	ApplicationBuildMajor   uint32
	ApplicationBuildMinor   uint32
	SimConnectVersionMajor  uint32
	SimConnectVersionMinor  uint32
	SimConnectBuildMajor    uint32
	SimConnectBuildMinor    uint32
	Reserved1               uint32
	Reserved2               uint32
}

// Name returns the simulator application name.
func (o RecvOpen) Name() string {
	return cString(o.ApplicationName[:])
}

// RecvQuit is received when the simulator shuts down.
type RecvQuit struct {
	Recv
}

// RecvException is received when an error occurs.
// SendID refers to the packet id of the failing call, see API.LastSentPacketID.
type RecvException struct {
	Recv
	Exception Exception
	SendID    uint32
	Index     uint32
}

// RecvEvent is received when a subscribed system or client event occurs.
type RecvEvent struct {
	Recv
	GroupID uint32
	EventID uint32
	Data    uint32
}

// RecvEventObjectAddRemove is received for the ObjectAdded and ObjectRemoved system events.
// Data carries the object id.
type RecvEventObjectAddRemove struct {
	RecvEvent
	ObjectType uint32
}

// RecvSimobjectData is the header of RECV_ID_SIMOBJECT_DATA(_BYTYPE).
type RecvSimobjectData struct {
	Recv
	RequestID   uint32
	ObjectID    uint32
	DefineID    uint32
	Flags       uint32
	EntryNumber uint32
	OutOf       uint32
	DefineCount uint32
}

// SimObjectData is a data message with its payload, which is packed in the
// datum order of DefineID.
type SimObjectData struct {
	RecvSimobjectData
	Data []byte
}

// RecvAssignedObjectID is received after spawning an AI object.
type RecvAssignedObjectID struct {
	Recv
	RequestID uint32
	ObjectID  uint32
}

// InitPositionSize is the packed size of SIMCONNECT_DATA_INITPOSITION.
const InitPositionSize = 56

// InitPosition is used for spawning and positioning objects.
// Must match SIMCONNECT_DATA_INITPOSITION exactly.
type InitPosition struct {
	Latitude    float64
	Longitude   float64
	AltitudeMSL float64
	Pitch       float64
	Bank        float64
	Heading     float64
	OnGround    uint32
	Airspeed    uint32
}

// cString converts a null-terminated C string byte array to a Go string.
func cString(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return string(b[:idx])
	}
	return string(b)
}
