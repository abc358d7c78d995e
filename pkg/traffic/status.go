package traffic

import (
	"errors"
	"slices"
	"time"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/simobject"
)

// ErrStopped is returned by queries once Run has ended.
var ErrStopped = errors.New("traffic manager stopped")

// ErrNotRendered is returned for aircraft without a confirmed object.
var ErrNotRendered = errors.New("aircraft not rendered")

// ErrNoCamera is returned for aircraft without an attached camera.
var ErrNoCamera = errors.New("no camera attached")

// Stats are counters of the dispatch loop since the manager was created.
type Stats struct {
	Connects          int `json:"connects"`
	Dispatches        int `json:"dispatches"`
	Messages          int `json:"messages"`
	Exceptions        int `json:"exceptions"`
	CallErrors        int `json:"call_errors"`
	Panics            int `json:"panics"`
	AddRequests       int `json:"add_requests"`
	Added             int `json:"added"`
	AddTimeouts       int `json:"add_timeouts"`
	PermanentFailures int `json:"permanent_failures"`
	RemoveRequests    int `json:"remove_requests"`
	SimulatorRemovals int `json:"simulator_removals"`
	LightResyncs      int `json:"light_resyncs"`

	DispatchTimeTotal time.Duration `json:"dispatch_time_total"`
	DispatchTimeMax   time.Duration `json:"dispatch_time_max"`
	MessageTimeMax    time.Duration `json:"message_time_max"`
}

func (s *Stats) observeDispatch(d time.Duration, messages int) {
	s.Dispatches++
	s.Messages += messages
	s.DispatchTimeTotal += d
	s.DispatchTimeMax = max(s.DispatchTimeMax, d)
}

func (s *Stats) observeMessage(d time.Duration) {
	s.MessageTimeMax = max(s.MessageTimeMax, d)
}

// Status is a snapshot of the manager, safe to read from any goroutine.
type Status struct {
	State        sim.State            `json:"state"`
	Objects      []simobject.Snapshot `json:"objects"`
	Rendered     []string             `json:"rendered"`
	Queued       []string             `json:"queued"`
	Traces       int                  `json:"traces"`
	Tracing      bool                 `json:"tracing"`
	ProbeEnabled bool                 `json:"probe_enabled"`
	Stats        Stats                `json:"stats"`
	Updated      time.Time            `json:"updated"`
}

// TraceInfo is a send id trace as reported to callers.
type TraceInfo struct {
	SendID  uint32             `json:"send_id"`
	Comment string             `json:"comment"`
	At      time.Time          `json:"at"`
	Object  simobject.Snapshot `json:"object"`
}

func traceInfos(traces []SendIDTrace) []TraceInfo {
	out := make([]TraceInfo, len(traces))
	for i, t := range traces {
		out[i] = TraceInfo{SendID: t.SendID, Comment: t.Comment, At: t.At, Object: t.Object.Snapshot()}
	}
	return out
}

func (m *Manager) publish(now time.Time) {
	st := &Status{
		State:        m.state,
		Traces:       m.traces.Len(),
		Tracing:      m.traces.Active(now),
		ProbeEnabled: m.cfg.ProbeTitle != "" && !m.probe.disabled,
		Stats:        m.stats,
		Updated:      now,
	}
	for _, obj := range m.objects.ByType(simobject.AllTypes) {
		st.Objects = append(st.Objects, obj.Snapshot())
		if obj.IsAircraft() && obj.IsConfirmedAdded() {
			st.Rendered = append(st.Rendered, obj.Callsign())
		}
	}
	slices.Sort(st.Rendered)
	for _, q := range m.addQueue {
		st.Queued = append(st.Queued, q.callsign)
	}
	m.status.Store(st)

	m.metrics.SetCounts(len(st.Rendered), m.objects.CountPendingAdded(simobject.Aircraft), len(m.addQueue), st.Traces)
}

// Status returns the latest snapshot.
func (m *Manager) Status() Status {
	return *m.status.Load()
}

// IsPhysicallyRenderedAircraft reports whether callsign was confirmed in the
// simulator as of the latest snapshot.
func (m *Manager) IsPhysicallyRenderedAircraft(callsign string) bool {
	_, found := slices.BinarySearch(m.status.Load().Rendered, callsign)
	return found
}

// PhysicallyRenderedAircraft returns the rendered callsigns, sorted.
func (m *Manager) PhysicallyRenderedAircraft() []string {
	return slices.Clone(m.status.Load().Rendered)
}
