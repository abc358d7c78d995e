package simconnect

// Error codes
const (
	SOK   = 0
	EFAIL = 0x80004005
)

// DataType is a SIMCONNECT_DATATYPE value.
type DataType uint32

// Data types
const (
	DATATYPE_INVALID      DataType = 0
	DATATYPE_INT32        DataType = 1
	DATATYPE_INT64        DataType = 2
	DATATYPE_FLOAT32      DataType = 3
	DATATYPE_FLOAT64      DataType = 4
	DATATYPE_STRING8      DataType = 5
	DATATYPE_STRING32     DataType = 6
	DATATYPE_STRING64     DataType = 7
	DATATYPE_STRING128    DataType = 8
	DATATYPE_STRING256    DataType = 9
	DATATYPE_STRING260    DataType = 10
	DATATYPE_STRINGV      DataType = 11
	DATATYPE_INITPOSITION DataType = 12
)

// Size returns the packed wire size of a datum of this type, 0 for variable or invalid types.
func (t DataType) Size() int {
	switch t {
	case DATATYPE_INT32, DATATYPE_FLOAT32:
		return 4
	case DATATYPE_INT64, DATATYPE_FLOAT64, DATATYPE_STRING8:
		return 8
	case DATATYPE_STRING32:
		return 32
	case DATATYPE_STRING64:
		return 64
	case DATATYPE_STRING128:
		return 128
	case DATATYPE_STRING256:
		return 256
	case DATATYPE_STRING260:
		return 260
	case DATATYPE_INITPOSITION:
		return InitPositionSize
	}
	return 0
}

// Period is a SIMCONNECT_PERIOD value.
type Period uint32

// Periods
const (
	PERIOD_NEVER        Period = 0
	PERIOD_ONCE         Period = 1
	PERIOD_VISUAL_FRAME Period = 2
	PERIOD_SIM_FRAME    Period = 3
	PERIOD_SECOND       Period = 4
)

// Data request flags
const (
	DATA_REQUEST_FLAG_DEFAULT uint32 = 0
	DATA_REQUEST_FLAG_CHANGED uint32 = 1
	DATA_REQUEST_FLAG_TAGGED  uint32 = 2
)

// Event flags and group priorities
const (
	EVENT_FLAG_DEFAULT             uint32 = 0
	EVENT_FLAG_GROUPID_IS_PRIORITY uint32 = 0x10
	GROUP_PRIORITY_HIGHEST         uint32 = 1
	GROUP_PRIORITY_STANDARD        uint32 = 1900000000
)

// Object types
const (
	SIMOBJECT_TYPE_USER            uint32 = 0
	SIMOBJECT_TYPE_ALL             uint32 = 1
	SIMOBJECT_TYPE_AIRCRAFT        uint32 = 2
	SIMOBJECT_TYPE_HELICOPTER      uint32 = 3
	SIMOBJECT_TYPE_BOAT            uint32 = 4
	SIMOBJECT_TYPE_GROUND          uint32 = 5
	SIMOBJECT_TYPE_HOT_AIR_BALLOON uint32 = 6
)

// RecvID is the SIMCONNECT_RECV_ID tag of a dispatched message.
type RecvID uint32

// Recv IDs
const (
	RECV_ID_NULL                   RecvID = 0
	RECV_ID_EXCEPTION              RecvID = 1
	RECV_ID_OPEN                   RecvID = 2
	RECV_ID_QUIT                   RecvID = 3
	RECV_ID_EVENT                  RecvID = 4
	RECV_ID_EVENT_OBJECT_ADDREMOVE RecvID = 5
	RECV_ID_EVENT_FILENAME         RecvID = 6
	RECV_ID_EVENT_FRAME            RecvID = 7
	RECV_ID_SIMOBJECT_DATA         RecvID = 8
	RECV_ID_SIMOBJECT_DATA_BYTYPE  RecvID = 9
	RECV_ID_ASSIGNED_OBJECT_ID     RecvID = 12
)

func (id RecvID) String() string {
	switch id {
	case RECV_ID_NULL:
		return "NULL"
	case RECV_ID_EXCEPTION:
		return "EXCEPTION"
	case RECV_ID_OPEN:
		return "OPEN"
	case RECV_ID_QUIT:
		return "QUIT"
	case RECV_ID_EVENT:
		return "EVENT"
	case RECV_ID_EVENT_OBJECT_ADDREMOVE:
		return "EVENT_OBJECT_ADDREMOVE"
	case RECV_ID_EVENT_FILENAME:
		return "EVENT_FILENAME"
	case RECV_ID_EVENT_FRAME:
		return "EVENT_FRAME"
	case RECV_ID_SIMOBJECT_DATA:
		return "SIMOBJECT_DATA"
	case RECV_ID_SIMOBJECT_DATA_BYTYPE:
		return "SIMOBJECT_DATA_BYTYPE"
	case RECV_ID_ASSIGNED_OBJECT_ID:
		return "ASSIGNED_OBJECT_ID"
	}
	return "UNKNOWN"
}

// Special Object IDs
const (
	OBJECT_ID_USER uint32 = 0
)

// Unused is SIMCONNECT_UNUSED, e.g. for an unassigned datum id.
const Unused uint32 = 0xFFFFFFFF
