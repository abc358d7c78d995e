package api

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"swiftgo/pkg/aircraft"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/simobject"
	"swiftgo/pkg/traffic"
)

type fakeTraffic struct {
	mu          sync.Mutex
	status      traffic.Status
	traces      []traffic.TraceInfo
	tracing     *bool
	maxAircraft int
	added       []string
	removed     []string
	removedAll  bool
	stopped     bool
	cameras     map[string]simobject.Camera
	observers   map[string]string
}

func (f *fakeTraffic) Status() traffic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeTraffic) Traces(context.Context) ([]traffic.TraceInfo, error) {
	if f.stopped {
		return nil, traffic.ErrStopped
	}
	return f.traces, nil
}

func (f *fakeTraffic) SetTracing(on bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracing = &on
	return !f.stopped
}

func (f *fakeTraffic) SetMaxAircraft(n int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxAircraft = n
	return !f.stopped
}

func (f *fakeTraffic) PhysicallyAddRemoteAircraft(callsign string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, callsign)
	return !f.stopped
}

func (f *fakeTraffic) PhysicallyRemoveRemoteAircraft(callsign string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, callsign)
	return !f.stopped
}

func (f *fakeTraffic) PhysicallyRemoveAllRemoteAircraft() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedAll = true
	return !f.stopped
}

func (f *fakeTraffic) AttachCamera(_ context.Context, callsign, observer string, position, rotation [3]float64) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return uuid.Nil, traffic.ErrStopped
	}
	if !slices.Contains(f.status.Rendered, callsign) {
		return uuid.Nil, fmt.Errorf("%w: %s", traffic.ErrNotRendered, callsign)
	}
	if f.cameras == nil {
		f.cameras = make(map[string]simobject.Camera)
		f.observers = make(map[string]string)
	}
	cam := simobject.Camera{GUID: uuid.New(), Position: position, Rotation: rotation}
	f.cameras[callsign] = cam
	f.observers[callsign] = observer
	return cam.GUID, nil
}

func (f *fakeTraffic) DetachCamera(callsign string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cameras, callsign)
	delete(f.observers, callsign)
	return !f.stopped
}

func (f *fakeTraffic) Camera(_ context.Context, callsign string) (simobject.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cam, ok := f.cameras[callsign]
	if !ok {
		return simobject.Snapshot{}, fmt.Errorf("%w: %s", traffic.ErrNoCamera, callsign)
	}
	return simobject.Snapshot{Callsign: callsign, Camera: &cam, Observer: f.observers[callsign]}, nil
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func remoteWith(callsigns ...string) *aircraft.RemoteProvider {
	p := aircraft.NewRemoteProvider(aircraft.DefaultHistory, aircraft.DefaultMaxExtrapolation)
	for i, cs := range callsigns {
		p.Upsert(sim.Aircraft{
			Callsign: cs,
			ICAOType: "A320",
			Situation: sim.Situation{
				Latitude:    50 + float64(i)*0.1,
				Longitude:   8.5,
				AltitudeMSL: 5000,
			},
		}, testNow)
	}
	return p
}
