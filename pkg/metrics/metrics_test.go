package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveDispatch(2 * time.Millisecond)
	m.Exception("EXCEPTION_CREATE_OBJECT_FAILED")
	m.Exception("EXCEPTION_CREATE_OBJECT_FAILED")
	m.AddFailed("timeout")
	m.SetCounts(3, 1, 2, 40)
	m.SetConnected(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Exceptions.WithLabelValues("EXCEPTION_CREATE_OBJECT_FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AddFailures.WithLabelValues("timeout")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RenderedAircraft))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.TracedSendIDs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connected))
}

func TestMetrics_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDispatch(time.Millisecond)
		m.Message("OPEN")
		m.Exception("x")
		m.AddRequested()
		m.AddFailed("removed")
		m.RemoveRequested()
		m.SimulatorRemoved()
		m.ElevationRequested("cache")
		m.SetCounts(1, 1, 1, 1)
		m.SetConnected(false)
	})
}

func TestMetrics_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.AddRequested()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "swiftgo_add_requests_total 1")
}
