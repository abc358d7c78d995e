package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"swiftgo/pkg/config"
)

// SettingsHandler serves the settings that can change at runtime. Changes
// are persisted and, where the manager supports it, applied at once.
type SettingsHandler struct {
	cfgProv config.Provider
	mgr     Traffic
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(cfg config.Provider, mgr Traffic) *SettingsHandler {
	return &SettingsHandler{cfgProv: cfg, mgr: mgr}
}

// SettingsResponse represents the settings API response.
type SettingsResponse struct {
	SimSource    string  `json:"sim_source"`
	TraceSendIDs bool    `json:"trace_send_ids"`
	MaxAircraft  int     `json:"max_aircraft"`
	MaxRangeNM   float64 `json:"max_range_nm"`
	FeedEnabled  bool    `json:"vatsim_enabled"`
	DefaultModel string  `json:"default_model"`
}

// SettingsRequest represents a partial settings update.
type SettingsRequest struct {
	SimSource    string `json:"sim_source,omitempty"`
	TraceSendIDs *bool  `json:"trace_send_ids,omitempty"` // Pointer to detect false vs missing
	MaxAircraft  *int   `json:"max_aircraft,omitempty"`
	FeedEnabled  *bool  `json:"vatsim_enabled,omitempty"`
}

// HandleGet returns the current settings.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.settings(r.Context()))
}

func (h *SettingsHandler) settings(ctx context.Context) SettingsResponse {
	return SettingsResponse{
		SimSource:    h.cfgProv.SimProvider(ctx),
		TraceSendIDs: h.cfgProv.TraceSendIDs(ctx),
		MaxAircraft:  h.cfgProv.MaxAircraft(ctx),
		MaxRangeNM:   h.cfgProv.MaxRangeNM(ctx),
		FeedEnabled:  h.cfgProv.FeedEnabled(ctx),
		DefaultModel: h.cfgProv.AppConfig().Traffic.DefaultModel,
	}
}

// HandleSet updates the settings and returns the result.
func (h *SettingsHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var req SettingsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.apply(r.Context(), &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.HandleGet(w, r)
}

func (h *SettingsHandler) apply(ctx context.Context, req *SettingsRequest) error {
	if req.MaxAircraft != nil && *req.MaxAircraft <= 0 {
		return fmt.Errorf("max_aircraft must be positive")
	}
	if req.SimSource != "" {
		if err := h.cfgProv.SetSimProvider(ctx, req.SimSource); err != nil {
			return err
		}
		slog.Info("Settings updated, effective after restart", "sim_source", req.SimSource)
	}
	if req.TraceSendIDs != nil {
		if err := h.cfgProv.SetTraceSendIDs(ctx, *req.TraceSendIDs); err != nil {
			return err
		}
		h.mgr.SetTracing(*req.TraceSendIDs)
		slog.Debug("Settings updated", "trace_send_ids", *req.TraceSendIDs)
	}
	if req.MaxAircraft != nil {
		if err := h.cfgProv.SetMaxAircraft(ctx, *req.MaxAircraft); err != nil {
			return err
		}
		h.mgr.SetMaxAircraft(*req.MaxAircraft)
		slog.Debug("Settings updated", "max_aircraft", *req.MaxAircraft)
	}
	if req.FeedEnabled != nil {
		if err := h.cfgProv.SetFeedEnabled(ctx, *req.FeedEnabled); err != nil {
			return err
		}
		slog.Debug("Settings updated", "vatsim_enabled", *req.FeedEnabled)
	}
	return nil
}
