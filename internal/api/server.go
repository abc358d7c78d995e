// Package api is the local HTTP interface: status, remote aircraft, runtime
// settings, metrics and a websocket event stream.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"swiftgo/pkg/version"
)

// Handlers groups the endpoint handlers. Nil handlers leave their routes out.
type Handlers struct {
	Aircraft  *AircraftHandler
	Telemetry *TelemetryHandler
	Settings  *SettingsHandler
	Stats     *StatsHandler
	Logs      *LogHandler
	Events    *EventHub
	Metrics   http.Handler
}

// NewServer creates and configures the HTTP server.
// shutdown is called once after a POST /api/shutdown was answered.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(h, shutdown),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers the routes.
func NewMux(h Handlers, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	if a := h.Aircraft; a != nil {
		mux.HandleFunc("GET /api/status", a.HandleStatus)
		mux.HandleFunc("GET /api/traces", a.HandleTraces)
		mux.HandleFunc("GET /api/aircraft", a.HandleList)
		mux.HandleFunc("GET /api/aircraft/{callsign}", a.HandleGet)
		mux.HandleFunc("POST /api/aircraft/{callsign}/enable", a.HandleEnable)
		mux.HandleFunc("POST /api/aircraft/{callsign}/disable", a.HandleDisable)
		mux.HandleFunc("POST /api/aircraft/remove-all", a.HandleRemoveAll)
		mux.HandleFunc("GET /api/aircraft/{callsign}/camera", a.HandleGetCamera)
		mux.HandleFunc("POST /api/aircraft/{callsign}/camera", a.HandleAttachCamera)
		mux.HandleFunc("DELETE /api/aircraft/{callsign}/camera", a.HandleDetachCamera)
	}

	if h.Telemetry != nil {
		mux.HandleFunc("GET /api/telemetry", h.Telemetry.handleTelemetry)
	}

	if s := h.Settings; s != nil {
		mux.HandleFunc("GET /api/settings", s.HandleGet)
		mux.HandleFunc("PUT /api/settings", s.HandleSet)
	}

	if h.Stats != nil {
		mux.Handle("GET /api/stats", h.Stats)
	}

	if l := h.Logs; l != nil {
		mux.HandleFunc("GET /api/log/latest", l.HandleLatest)
		mux.HandleFunc("GET /api/log", l.HandleLines)
	}

	if h.Events != nil {
		mux.Handle("GET /ws/events", h.Events)
	}

	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			// Let the response flush first.
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
