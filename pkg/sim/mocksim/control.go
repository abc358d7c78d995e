package mocksim

import (
	"cmp"
	"slices"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/simconnect"
)

// The methods below drive the mock from tests and the experiment tool.

// Objects returns a copy of the live AI objects sorted by object id.
func (s *Sim) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Object, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, *o)
	}
	slices.SortFunc(out, func(a, b Object) int { return cmp.Compare(a.ObjectID, b.ObjectID) })
	return out
}

// ObjectByTail returns the AI object created with a tail number.
func (s *Sim) ObjectByTail(tail string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.objects {
		if o.Tail == tail {
			return *o, true
		}
	}
	return Object{}, false
}

// RemoveObject removes an object on the simulator side, as the simulator
// does when it culls traffic.
func (s *Sim) RemoveObject(objectID uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectID]; !ok {
		return false
	}
	s.removeObject(objectID)
	return true
}

// SetLights overrides the lights of an object, e.g. the model switching
// its lights on by itself.
func (s *Sim) SetLights(objectID uint32, l sim.Lights) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.objects[objectID]; ok {
		o.Lights = l
	}
}

// InjectException queues an exception for sendID.
func (s *Sim) InjectException(ex simconnect.Exception, sendID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exception(ex, sendID)
}

// FailTitle makes creation with title fail from now on.
func (s *Sim) FailTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FailTitles = append(s.cfg.FailTitles, title)
}

// Quit queues a quit message.
func (s *Sim) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueue(simconnect.RecvQuit{Recv: simconnect.Recv{ID: simconnect.RECV_ID_QUIT}})
}

// SimStop raises the SimStop system event if subscribed.
func (s *Sim) SimStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[simconnect.EventSimStop]; !ok {
		return
	}
	s.enqueue(simconnect.RecvEvent{
		Recv:    simconnect.Recv{ID: simconnect.RECV_ID_EVENT},
		GroupID: simconnect.Unused,
		EventID: uint32(simconnect.EventSimStop),
	})
}

// SetOwnSituation teleports the own aircraft.
func (s *Sim) SetOwnSituation(sit sim.Situation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own.s = sit
	s.own.vs.Reset()
}

// Stage returns the flight stage of the own aircraft.
func (s *Sim) Stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.own.stage
}

// Calls returns the API calls so far, one line per call, in send order.
// Calls[i] carries send id i+1.
func (s *Sim) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// IsOpen reports whether a client is connected.
func (s *Sim) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
