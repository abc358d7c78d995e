package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"swiftgo/pkg/aircraft"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/traffic"
)

func TestTelemetryHandler_HandleTelemetry(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*aircraft.OwnProvider, *fakeTraffic)
		wantLat   float64
		wantState sim.State
	}{
		{
			name: "Success_WithData",
			setup: func(own *aircraft.OwnProvider, mgr *fakeTraffic) {
				own.UpdateOwnSituation(sim.Situation{Latitude: 51.5, Longitude: -0.1, AltitudeMSL: 1000, Time: testNow}, 1000)
				mgr.status = traffic.Status{State: sim.StateSimulating}
			},
			wantLat:   51.5,
			wantState: sim.StateSimulating,
		},
		{
			name:      "Success_EmptyInitial",
			wantLat:   0,
			wantState: sim.StateDisconnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			own := aircraft.NewOwnProvider()
			mgr := &fakeTraffic{}
			if tt.setup != nil {
				tt.setup(own, mgr)
			}
			handler := NewTelemetryHandler(own, mgr)

			req := httptest.NewRequest("GET", "/api/telemetry", http.NoBody)
			w := httptest.NewRecorder()

			handler.handleTelemetry(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("StatusCode: got %v, want %v", resp.StatusCode, http.StatusOK)
			}
			var got TelemetryResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if got.Situation.Latitude != tt.wantLat {
				t.Errorf("got Lat %v, want %v", got.Situation.Latitude, tt.wantLat)
			}
			if got.SimState != tt.wantState {
				t.Errorf("got state %q, want %q", got.SimState, tt.wantState)
			}
		})
	}
}
