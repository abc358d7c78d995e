package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"swiftgo/pkg/terrain"
	"swiftgo/pkg/tracker"
	"swiftgo/pkg/traffic"
)

// ElevationStats reports the elevation cache counters.
type ElevationStats interface {
	Stats() terrain.Stats
}

type StatsHandler struct {
	tracker   *tracker.Tracker
	mgr       Traffic
	elevation ElevationStats
	started   time.Time

	mu     sync.Mutex
	maxMem uint64
}

func NewStatsHandler(t *tracker.Tracker, mgr Traffic, elevation ElevationStats) *StatsHandler {
	return &StatsHandler{
		tracker:   t,
		mgr:       mgr,
		elevation: elevation,
		started:   time.Now(),
	}
}

type Diagnostics struct {
	MemoryMB    uint64  `json:"memory_mb"`
	MemoryMaxMB uint64  `json:"memory_max_mb"`
	Goroutines  int     `json:"goroutines"`
	UptimeSec   float64 `json:"uptime_sec"`
}

type ElevationDTO struct {
	Size    int   `json:"size"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	HitRate int64 `json:"hit_rate"`
}

type StatsResponse struct {
	Diagnostics Diagnostics                      `json:"diagnostics"`
	Traffic     traffic.Stats                    `json:"traffic"`
	Rendered    int                              `json:"rendered"`
	Queued      int                              `json:"queued"`
	Elevation   *ElevationDTO                    `json:"elevation,omitempty"`
	Providers   map[string]tracker.ProviderStats `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.mgr.Status()
	resp := StatsResponse{
		Diagnostics: h.diagnostics(),
		Traffic:     status.Stats,
		Rendered:    len(status.Rendered),
		Queued:      len(status.Queued),
		Providers:   h.tracker.Snapshot(),
	}
	if h.elevation != nil {
		s := h.elevation.Stats()
		hitRate := int64(0)
		if total := s.Hits + s.Misses; total > 0 {
			hitRate = (s.Hits * 100) / total
		}
		resp.Elevation = &ElevationDTO{Size: s.Size, Hits: s.Hits, Misses: s.Misses, HitRate: hitRate}
	}
	writeJSON(w, resp)
}

func (h *StatsHandler) diagnostics() Diagnostics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	h.mu.Lock()
	h.maxMem = max(h.maxMem, ms.Sys)
	peak := h.maxMem
	h.mu.Unlock()

	return Diagnostics{
		MemoryMB:    ms.Sys / 1024 / 1024,
		MemoryMaxMB: peak / 1024 / 1024,
		Goroutines:  runtime.NumGoroutine(),
		UptimeSec:   time.Since(h.started).Seconds(),
	}
}
