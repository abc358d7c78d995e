package simconnect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	lights, err := MarshalData(LightsData{Strobe: 1, Beacon: 1})
	require.NoError(t, err)

	var open RecvOpen
	open.ID = RECV_ID_OPEN
	copy(open.ApplicationName[:], "KittyHawk")

	tests := []struct {
		name string
		msg  Message
	}{
		{"open", open},
		{"quit", RecvQuit{Recv{ID: RECV_ID_QUIT}}},
		{"exception", RecvException{Recv: Recv{ID: RECV_ID_EXCEPTION}, Exception: EXCEPTION_CREATE_OBJECT_FAILED, SendID: 42, Index: 3}},
		{"event", RecvEvent{Recv: Recv{ID: RECV_ID_EVENT}, GroupID: Unused, EventID: uint32(EventPause), Data: 1}},
		{"object removed", RecvEventObjectAddRemove{RecvEvent: RecvEvent{Recv: Recv{ID: RECV_ID_EVENT_OBJECT_ADDREMOVE}, EventID: uint32(EventObjectRemoved), Data: 500}, ObjectType: SIMOBJECT_TYPE_AIRCRAFT}},
		{"assigned", RecvAssignedObjectID{Recv: Recv{ID: RECV_ID_ASSIGNED_OBJECT_ID}, RequestID: 7, ObjectID: 500}},
		{"data", SimObjectData{RecvSimobjectData: RecvSimobjectData{Recv: Recv{ID: RECV_ID_SIMOBJECT_DATA}, RequestID: 9, ObjectID: 500, DefineID: uint32(DefinitionRemoteAircraftLights), DefineCount: 1}, Data: lights}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.msg)
			require.NoError(t, err)

			got, err := Decode(b)
			require.NoError(t, err)
			assert.Equal(t, tt.msg.RecvID(), got.RecvID())

			// Size is filled in by Encode
			back, err := Encode(got)
			require.NoError(t, err)
			assert.Equal(t, b, back)
		})
	}
}

func TestDecode_OpenName(t *testing.T) {
	var open RecvOpen
	open.ID = RECV_ID_OPEN
	copy(open.ApplicationName[:], "Lockheed Martin Prepar3D v5")
	b, err := Encode(open)
	require.NoError(t, err)

	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "Lockheed Martin Prepar3D v5", m.(RecvOpen).Name())
}

func TestDecode_SimObjectPayload(t *testing.T) {
	payload, err := MarshalData(GetPositionData{Latitude: 47.5, GroundElevation: 1234})
	require.NoError(t, err)
	b, err := Encode(SimObjectData{RecvSimobjectData: RecvSimobjectData{Recv: Recv{ID: RECV_ID_SIMOBJECT_DATA}}, Data: payload})
	require.NoError(t, err)

	m, err := Decode(b)
	require.NoError(t, err)
	var pos GetPositionData
	require.NoError(t, UnmarshalData(m.(SimObjectData).Data, &pos))
	assert.Equal(t, 47.5, pos.Latitude)
	assert.Equal(t, 1234.0, pos.GroundElevation)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte{1, 2})
	assert.True(t, errors.Is(err, ErrShortMessage))

	b, err := Encode(RecvAssignedObjectID{Recv: Recv{ID: RECV_ID_ASSIGNED_OBJECT_ID}})
	require.NoError(t, err)
	_, err = Decode(b[:len(b)-2])
	assert.True(t, errors.Is(err, ErrShortMessage))

	// unknown ids decode to the header only
	b, err = Encode(Recv{ID: 99})
	require.NoError(t, err)
	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, RecvID(99), m.RecvID())
}

func TestException_String(t *testing.T) {
	assert.Equal(t, "CREATE_OBJECT_FAILED", EXCEPTION_CREATE_OBJECT_FAILED.String())
	assert.Equal(t, "OBJECT_SCHEDULE", EXCEPTION_OBJECT_SCHEDULE.String())
	assert.Equal(t, "EXCEPTION_99", Exception(99).String())
}
