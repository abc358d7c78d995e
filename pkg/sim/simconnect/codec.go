package simconnect

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortMessage is returned when a buffer is smaller than its declared layout.
var ErrShortMessage = errors.New("simconnect: message too short")

var byteOrder = binary.LittleEndian

var decoders = map[RecvID]func([]byte) (Message, error){
	RECV_ID_OPEN:                   decodeAs[RecvOpen],
	RECV_ID_QUIT:                   decodeAs[RecvQuit],
	RECV_ID_EXCEPTION:              decodeAs[RecvException],
	RECV_ID_EVENT:                  decodeAs[RecvEvent],
	RECV_ID_EVENT_OBJECT_ADDREMOVE: decodeAs[RecvEventObjectAddRemove],
	RECV_ID_SIMOBJECT_DATA:         decodeSimObjectData,
	RECV_ID_SIMOBJECT_DATA_BYTYPE:  decodeSimObjectData,
	RECV_ID_ASSIGNED_OBJECT_ID:     decodeAs[RecvAssignedObjectID],
}

// Decode turns one dispatched buffer into its typed message.
// Unknown receive IDs decode to the bare Recv header.
func Decode(b []byte) (Message, error) {
	var hdr Recv
	if err := UnmarshalData(b, &hdr); err != nil {
		return nil, err
	}
	dec, ok := decoders[hdr.ID]
	if !ok {
		return hdr, nil
	}
	m, err := dec(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", hdr.ID, err)
	}
	return m, nil
}

func decodeAs[T Message](b []byte) (Message, error) {
	var v T
	if err := UnmarshalData(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeSimObjectData(b []byte) (Message, error) {
	var d SimObjectData
	if err := UnmarshalData(b, &d.RecvSimobjectData); err != nil {
		return nil, err
	}
	n := binary.Size(d.RecvSimobjectData)
	d.Data = append([]byte(nil), b[n:]...)
	return d, nil
}

// Encode renders a message in wire layout with Size filled in.
// It is the inverse of Decode and is used by fake simulators.
func Encode(m Message) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if d, ok := m.(SimObjectData); ok {
		err = binary.Write(&buf, byteOrder, d.RecvSimobjectData)
		buf.Write(d.Data)
	} else {
		err = binary.Write(&buf, byteOrder, m)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.RecvID(), err)
	}
	out := buf.Bytes()
	byteOrder.PutUint32(out[0:4], uint32(len(out)))
	return out, nil
}

// MarshalData packs a data definition struct without padding, in field order.
func MarshalData(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, byteOrder, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalData reads a packed struct from b. Trailing bytes are ignored.
func UnmarshalData(b []byte, v any) error {
	n := binary.Size(v)
	if n < 0 {
		return fmt.Errorf("simconnect: %T has no fixed size", v)
	}
	if len(b) < n {
		return fmt.Errorf("%w: %d < %d bytes for %T", ErrShortMessage, len(b), n, v)
	}
	return binary.Read(bytes.NewReader(b[:n]), byteOrder, v)
}
