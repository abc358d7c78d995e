package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/simobject"
	"swiftgo/pkg/traffic"
)

// Traffic is the part of the AI object manager the API drives.
type Traffic interface {
	Status() traffic.Status
	Traces(ctx context.Context) ([]traffic.TraceInfo, error)
	SetTracing(on bool) bool
	SetMaxAircraft(n int) bool
	PhysicallyAddRemoteAircraft(callsign string) bool
	PhysicallyRemoveRemoteAircraft(callsign string) bool
	PhysicallyRemoveAllRemoteAircraft() bool
	AttachCamera(ctx context.Context, callsign, observer string, position, rotation [3]float64) (uuid.UUID, error)
	DetachCamera(callsign string) bool
	Camera(ctx context.Context, callsign string) (simobject.Snapshot, error)
}

// AircraftHandler serves the remote aircraft and the manager status.
type AircraftHandler struct {
	mgr    Traffic
	remote sim.RemoteAircraftProvider
}

// NewAircraftHandler creates a new AircraftHandler.
func NewAircraftHandler(mgr Traffic, remote sim.RemoteAircraftProvider) *AircraftHandler {
	return &AircraftHandler{mgr: mgr, remote: remote}
}

// AircraftDTO is a remote aircraft with its simulator side state.
type AircraftDTO struct {
	sim.Aircraft
	Physical bool `json:"physical"`
}

// HandleList returns all remote aircraft.
func (h *AircraftHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	all := h.remote.RemoteAircraft()
	out := make([]AircraftDTO, len(all))
	for i, ac := range all {
		out[i] = h.dto(ac)
	}
	writeJSON(w, out)
}

// HandleGet returns one aircraft.
func (h *AircraftHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.remote.RemoteAircraftByCallsign(callsignParam(r))
	if !ok {
		http.Error(w, "Unknown callsign", http.StatusNotFound)
		return
	}
	writeJSON(w, h.dto(ac))
}

// HandleEnable enables an aircraft and asks for it to be added.
func (h *AircraftHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, callsignParam(r), true)
}

// HandleDisable disables an aircraft and removes it from the simulator.
func (h *AircraftHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, callsignParam(r), false)
}

func (h *AircraftHandler) setEnabled(w http.ResponseWriter, callsign string, enabled bool) {
	if !h.remote.UpdateAircraftEnabled(callsign, enabled) {
		http.Error(w, "Unknown callsign", http.StatusNotFound)
		return
	}
	var accepted bool
	if enabled {
		accepted = h.mgr.PhysicallyAddRemoteAircraft(callsign)
	} else {
		accepted = h.mgr.PhysicallyRemoveRemoteAircraft(callsign)
	}
	if !accepted {
		http.Error(w, "Traffic manager stopped", http.StatusServiceUnavailable)
		return
	}
	slog.Info("Aircraft toggled via API", "callsign", callsign, "enabled", enabled)
	w.WriteHeader(http.StatusAccepted)
}

// HandleRemoveAll removes every aircraft from the simulator.
func (h *AircraftHandler) HandleRemoveAll(w http.ResponseWriter, r *http.Request) {
	if !h.mgr.PhysicallyRemoveAllRemoteAircraft() {
		http.Error(w, "Traffic manager stopped", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleStatus returns the latest manager snapshot.
func (h *AircraftHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.mgr.Status())
}

// HandleTraces returns the send id traces, most recent first.
func (h *AircraftHandler) HandleTraces(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	traces, err := h.mgr.Traces(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, traces)
}

// CameraRequest attaches a camera to a rendered aircraft.
type CameraRequest struct {
	Observer string     `json:"observer"`
	Position [3]float64 `json:"position"`
	Rotation [3]float64 `json:"rotation"`
}

// CameraResponse carries the GUID of an attached camera.
type CameraResponse struct {
	GUID uuid.UUID `json:"guid"`
}

// HandleAttachCamera attaches a camera to an aircraft.
func (h *AircraftHandler) HandleAttachCamera(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var req CameraRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	callsign := callsignParam(r)
	guid, err := h.mgr.AttachCamera(ctx, callsign, req.Observer, req.Position, req.Rotation)
	switch {
	case errors.Is(err, traffic.ErrNotRendered):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	slog.Info("Camera attached via API", "callsign", callsign, "observer", req.Observer)
	writeJSON(w, CameraResponse{GUID: guid})
}

// HandleGetCamera returns the object of an aircraft with its camera.
func (h *AircraftHandler) HandleGetCamera(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	snap, err := h.mgr.Camera(ctx, callsignParam(r))
	switch {
	case errors.Is(err, traffic.ErrNoCamera):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

// HandleDetachCamera removes the camera of an aircraft.
func (h *AircraftHandler) HandleDetachCamera(w http.ResponseWriter, r *http.Request) {
	if !h.mgr.DetachCamera(callsignParam(r)) {
		http.Error(w, "Traffic manager stopped", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *AircraftHandler) dto(ac sim.Aircraft) AircraftDTO {
	physical := false
	for _, cs := range h.mgr.Status().Rendered {
		if cs == ac.Callsign {
			physical = true
			break
		}
	}
	return AircraftDTO{Aircraft: ac, Physical: physical}
}

func callsignParam(r *http.Request) string {
	return strings.ToUpper(r.PathValue("callsign"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
