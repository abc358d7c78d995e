package simconnect

import "fmt"

// Fixed request IDs, below all sim object ranges.
const (
	RequestOwnAircraft uint32 = iota
	RequestOwnAircraftTitle
	RequestSimEnvironment
	RequestEndMarker
)

// Range sizes
const (
	MaxSimObjAircraft = 10000
	MaxSimObjProbes   = 100
)

// SimObjectRequest is the sub request kind multiplexed into a sim object request id.
type SimObjectRequest uint32

// Sub requests
const (
	SimObjectBaseID SimObjectRequest = iota
	SimObjectAdd
	SimObjectRemove
	SimObjectLights
	SimObjectPositionData
	SimObjectModel
	SimObjectMisc
	SimObjectEndMarker
)

func (r SimObjectRequest) String() string {
	switch r {
	case SimObjectBaseID:
		return "base"
	case SimObjectAdd:
		return "add"
	case SimObjectRemove:
		return "remove"
	case SimObjectLights:
		return "lights"
	case SimObjectPositionData:
		return "position"
	case SimObjectModel:
		return "model"
	case SimObjectMisc:
		return "misc"
	}
	return fmt.Sprintf("subrequest(%d)", uint32(r))
}

// RequestRange is one contiguous block of request ids for a sim object type.
// The first Slots ids are base ids handed out to objects; the block holds
// SimObjectEndMarker copies of it, one per sub request kind.
type RequestRange struct {
	Start uint32
	Slots uint32
}

// Request id layout
var (
	AircraftRange = RequestRange{Start: RequestEndMarker, Slots: MaxSimObjAircraft}
	ProbeRange    = RequestRange{Start: AircraftRange.End(), Slots: MaxSimObjProbes}
)

// First is the first base id.
func (r RequestRange) First() uint32 { return r.Start }

// Last is the last base id.
func (r RequestRange) Last() uint32 { return r.Start + r.Slots - 1 }

// End is one past the last sub request id of the range.
func (r RequestRange) End() uint32 { return r.Start + uint32(SimObjectEndMarker)*r.Slots }

// Contains reports whether id is any id (base or sub request) of the range.
func (r RequestRange) Contains(id uint32) bool {
	return id >= r.Start && id < r.End()
}

// ID returns the sub request id for base id.
func (r RequestRange) ID(base uint32, sub SimObjectRequest) uint32 {
	return base + uint32(sub)*r.Slots
}

// Decode splits a request id into its base id and sub request kind.
func (r RequestRange) Decode(id uint32) (base uint32, sub SimObjectRequest, ok bool) {
	if !r.Contains(id) {
		return 0, 0, false
	}
	off := id - r.Start
	sub = SimObjectRequest(off / r.Slots)
	base = r.Start + off%r.Slots
	return base, sub, true
}

// RequestIDs hands out base ids from a range in a ring.
type RequestIDs struct {
	rng  RequestRange
	next uint32
}

// NewRequestIDs creates an allocator for rng.
func NewRequestIDs(rng RequestRange) *RequestIDs {
	return &RequestIDs{rng: rng, next: rng.First()}
}

// Next returns the next base id, wrapping around at the end of the range.
func (a *RequestIDs) Next() uint32 {
	id := a.next
	a.next++
	if a.next > a.rng.Last() {
		a.next = a.rng.First()
	}
	return id
}

// Range returns the range the allocator draws from.
func (a *RequestIDs) Range() RequestRange { return a.rng }
