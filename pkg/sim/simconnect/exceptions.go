package simconnect

import "fmt"

// Exception is a SIMCONNECT_EXCEPTION code.
type Exception uint32

// Exception codes
const (
	EXCEPTION_NONE                              Exception = 0
	EXCEPTION_ERROR                             Exception = 1
	EXCEPTION_SIZE_MISMATCH                     Exception = 2
	EXCEPTION_UNRECOGNIZED_ID                   Exception = 3
	EXCEPTION_UNOPENED                          Exception = 4
	EXCEPTION_VERSION_MISMATCH                  Exception = 5
	EXCEPTION_TOO_MANY_GROUPS                   Exception = 6
	EXCEPTION_NAME_UNRECOGNIZED                 Exception = 7
	EXCEPTION_TOO_MANY_EVENT_NAMES              Exception = 8
	EXCEPTION_EVENT_ID_DUPLICATE                Exception = 9
	EXCEPTION_TOO_MANY_MAPS                     Exception = 10
	EXCEPTION_TOO_MANY_OBJECTS                  Exception = 11
	EXCEPTION_TOO_MANY_REQUESTS                 Exception = 12
	EXCEPTION_WEATHER_INVALID_PORT              Exception = 13
	EXCEPTION_WEATHER_INVALID_METAR             Exception = 14
	EXCEPTION_WEATHER_UNABLE_TO_GET_OBSERVATION Exception = 15
	EXCEPTION_WEATHER_UNABLE_TO_CREATE_STATION  Exception = 16
	EXCEPTION_WEATHER_UNABLE_TO_REMOVE_STATION  Exception = 17
	EXCEPTION_INVALID_DATA_TYPE                 Exception = 18
	EXCEPTION_INVALID_DATA_SIZE                 Exception = 19
	EXCEPTION_DATA_ERROR                        Exception = 20
	EXCEPTION_INVALID_ARRAY                     Exception = 21
	EXCEPTION_CREATE_OBJECT_FAILED              Exception = 22
	EXCEPTION_LOAD_FLIGHTPLAN_FAILED            Exception = 23
	EXCEPTION_OPERATION_INVALID_FOR_OBJECT_TYPE Exception = 24
	EXCEPTION_ILLEGAL_OPERATION                 Exception = 25
	EXCEPTION_ALREADY_SUBSCRIBED                Exception = 26
	EXCEPTION_INVALID_ENUM                      Exception = 27
	EXCEPTION_DEFINITION_ERROR                  Exception = 28
	EXCEPTION_DUPLICATE_ID                      Exception = 29
	EXCEPTION_DATUM_ID                          Exception = 30
	EXCEPTION_OUT_OF_BOUNDS                     Exception = 31
	EXCEPTION_ALREADY_CREATED                   Exception = 32
	EXCEPTION_OBJECT_OUTSIDE_REALITY_BUBBLE     Exception = 33
	EXCEPTION_OBJECT_CONTAINER                  Exception = 34
	EXCEPTION_OBJECT_AI                         Exception = 35
	EXCEPTION_OBJECT_ATC                        Exception = 36
	EXCEPTION_OBJECT_SCHEDULE                   Exception = 37
)

var exceptionNames = [...]string{
	"NONE", "ERROR", "SIZE_MISMATCH", "UNRECOGNIZED_ID", "UNOPENED", "VERSION_MISMATCH",
	"TOO_MANY_GROUPS", "NAME_UNRECOGNIZED", "TOO_MANY_EVENT_NAMES", "EVENT_ID_DUPLICATE",
	"TOO_MANY_MAPS", "TOO_MANY_OBJECTS", "TOO_MANY_REQUESTS", "WEATHER_INVALID_PORT",
	"WEATHER_INVALID_METAR", "WEATHER_UNABLE_TO_GET_OBSERVATION", "WEATHER_UNABLE_TO_CREATE_STATION",
	"WEATHER_UNABLE_TO_REMOVE_STATION", "INVALID_DATA_TYPE", "INVALID_DATA_SIZE", "DATA_ERROR",
	"INVALID_ARRAY", "CREATE_OBJECT_FAILED", "LOAD_FLIGHTPLAN_FAILED",
	"OPERATION_INVALID_FOR_OBJECT_TYPE", "ILLEGAL_OPERATION", "ALREADY_SUBSCRIBED", "INVALID_ENUM",
	"DEFINITION_ERROR", "DUPLICATE_ID", "DATUM_ID", "OUT_OF_BOUNDS", "ALREADY_CREATED",
	"OBJECT_OUTSIDE_REALITY_BUBBLE", "OBJECT_CONTAINER", "OBJECT_AI", "OBJECT_ATC", "OBJECT_SCHEDULE",
}

func (e Exception) String() string {
	if int(e) < len(exceptionNames) {
		return exceptionNames[e]
	}
	return fmt.Sprintf("EXCEPTION_%d", uint32(e))
}
