// Package metrics bundles the Prometheus metrics of the AI object manager.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	Dispatches        prometheus.Counter
	Messages          *prometheus.CounterVec
	DispatchDuration  prometheus.Histogram
	Exceptions        *prometheus.CounterVec
	AddRequests       prometheus.Counter
	AddFailures       *prometheus.CounterVec
	RemoveRequests    prometheus.Counter
	SimRemovals       prometheus.Counter
	RenderedAircraft  prometheus.Gauge
	PendingAdds       prometheus.Gauge
	QueuedAdds        prometheus.Gauge
	TracedSendIDs     prometheus.Gauge
	ElevationRequests *prometheus.CounterVec
	Connected         prometheus.Gauge
}

// New registers all metrics on reg, the default registry if nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		gatherer: gatherer,
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swiftgo_dispatches_total",
			Help: "Number of dispatch queue drains.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftgo_messages_total",
			Help: "Dispatched SimConnect messages by receive id.",
		}, []string{"recv"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swiftgo_dispatch_duration_seconds",
			Help:    "Time spent draining the dispatch queue.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		Exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftgo_exceptions_total",
			Help: "SimConnect exceptions by exception name.",
		}, []string{"exception"}),
		AddRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swiftgo_add_requests_total",
			Help: "AI object creations sent to the simulator.",
		}),
		AddFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftgo_add_failures_total",
			Help: "Failed AI object creations by cause.",
		}, []string{"cause"}),
		RemoveRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swiftgo_remove_requests_total",
			Help: "AI object removals sent to the simulator.",
		}),
		SimRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swiftgo_simulator_removals_total",
			Help: "Objects removed by the simulator without being asked.",
		}),
		RenderedAircraft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swiftgo_rendered_aircraft",
			Help: "Confirmed remote aircraft in the simulator.",
		}),
		PendingAdds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swiftgo_pending_adds",
			Help: "Creations waiting for confirmation.",
		}),
		QueuedAdds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swiftgo_queued_adds",
			Help: "Aircraft waiting to be created.",
		}),
		TracedSendIDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swiftgo_traced_send_ids",
			Help: "Entries in the send id trace ring.",
		}),
		ElevationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftgo_elevation_requests_total",
			Help: "Ground elevation lookups by source.",
		}, []string{"source"}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swiftgo_simulator_connected",
			Help: "1 while connected to the simulator.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.Dispatches, m.Messages, m.DispatchDuration, m.Exceptions,
		m.AddRequests, m.AddFailures, m.RemoveRequests, m.SimRemovals,
		m.RenderedAircraft, m.PendingAdds, m.QueuedAdds, m.TracedSendIDs,
		m.ElevationRequests, m.Connected,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler exposes the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveDispatch records one queue drain.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.Dispatches.Inc()
	m.DispatchDuration.Observe(d.Seconds())
}

func (m *Metrics) Message(recv string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(recv).Inc()
}

func (m *Metrics) Exception(name string) {
	if m == nil {
		return
	}
	m.Exceptions.WithLabelValues(name).Inc()
}

func (m *Metrics) AddRequested() {
	if m == nil {
		return
	}
	m.AddRequests.Inc()
}

// AddFailed counts a failed creation; cause is exception, removed or timeout.
func (m *Metrics) AddFailed(cause string) {
	if m == nil {
		return
	}
	m.AddFailures.WithLabelValues(cause).Inc()
}

func (m *Metrics) RemoveRequested() {
	if m == nil {
		return
	}
	m.RemoveRequests.Inc()
}

func (m *Metrics) SimulatorRemoved() {
	if m == nil {
		return
	}
	m.SimRemovals.Inc()
}

// ElevationRequested counts a lookup; source is cache or probe.
func (m *Metrics) ElevationRequested(source string) {
	if m == nil {
		return
	}
	m.ElevationRequests.WithLabelValues(source).Inc()
}

// SetCounts updates the gauges from the object collection.
func (m *Metrics) SetCounts(rendered, pending, queued, traces int) {
	if m == nil {
		return
	}
	m.RenderedAircraft.Set(float64(rendered))
	m.PendingAdds.Set(float64(pending))
	m.QueuedAdds.Set(float64(queued))
	m.TracedSendIDs.Set(float64(traces))
}

func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.Connected.Set(v)
}
