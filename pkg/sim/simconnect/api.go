package simconnect

import "errors"

// ErrNotLoaded is returned when SimConnect.dll is not available.
var ErrNotLoaded = errors.New("SimConnect DLL not loaded")

// API is the subset of SimConnect used by the AI object manager. All methods
// must be called from one goroutine. Implementations: DLL (Windows) and mocksim.
type API interface {
	Open(appName string) error
	Close() error

	AddToDataDefinition(defineID DefineID, datumName, unitsName string, datumType DataType) error
	RequestDataOnSimObject(requestID uint32, defineID DefineID, objectID uint32, period Period, flags uint32) error
	// SetDataOnSimObject writes one packed data block, see MarshalData.
	SetDataOnSimObject(defineID DefineID, objectID uint32, data []byte) error

	AICreateNonATCAircraft(containerTitle, tailNumber string, initPos InitPosition, requestID uint32) error
	AICreateSimulatedObject(containerTitle string, initPos InitPosition, requestID uint32) error
	AIRemoveObject(objectID, requestID uint32) error
	AIReleaseControl(objectID, requestID uint32) error

	MapClientEventToSimEvent(eventID EventID, eventName string) error
	// TransmitClientEvent sends eventID to objectID with highest group priority.
	TransmitClientEvent(objectID uint32, eventID EventID, data uint32) error
	SubscribeToSystemEvent(eventID EventID, eventName string) error

	// LastSentPacketID returns the send id of the last call, the value
	// later echoed in RecvException.SendID.
	LastSentPacketID() (uint32, error)
	// NextDispatch returns the next queued message or nil if there is none.
	NextDispatch() (Message, error)
}
