package api

import (
	"net/http"

	"swiftgo/pkg/sim"
)

// TelemetryResponse is the own aircraft plus the simulator state.
type TelemetryResponse struct {
	sim.OwnAircraft
	SimState sim.State `json:"sim_state"`
}

type TelemetryHandler struct {
	own sim.OwnAircraftProvider
	mgr Traffic
}

func NewTelemetryHandler(own sim.OwnAircraftProvider, mgr Traffic) *TelemetryHandler {
	return &TelemetryHandler{own: own, mgr: mgr}
}

func (h *TelemetryHandler) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	resp := TelemetryResponse{SimState: h.mgr.Status().State}
	if h.own != nil {
		resp.OwnAircraft = h.own.OwnAircraft()
	}
	if resp.SimState == "" {
		resp.SimState = sim.StateDisconnected
	}
	writeJSON(w, resp)
}
