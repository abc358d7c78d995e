// Package tracker counts outbound HTTP requests per provider.
package tracker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tracker tracks usage statistics per provider.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*providerStats
}

type providerStats struct {
	success     atomic.Int64
	failures    atomic.Int64
	retries     atomic.Int64
	notModified atomic.Int64
	bytes       atomic.Int64
	lastSuccess atomic.Int64 // unix nanos
}

// ProviderStats is a snapshot of one provider's counters.
type ProviderStats struct {
	Success     int64     `json:"success"`
	Failures    int64     `json:"failures"`
	Retries     int64     `json:"retries"`
	NotModified int64     `json:"not_modified"`
	Bytes       int64     `json:"bytes"`
	LastSuccess time.Time `json:"last_success,omitzero"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*providerStats),
	}
}

// getStats returns the stats object for a provider, creating it if needed.
func (t *Tracker) getStats(provider string) *providerStats {
	t.mu.RLock()
	s, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[provider]; ok {
		return s
	}
	s = &providerStats{}
	t.stats[provider] = s
	return s
}

// TrackSuccess counts a completed request of n body bytes.
func (t *Tracker) TrackSuccess(provider string, n int) {
	s := t.getStats(provider)
	s.success.Add(1)
	s.bytes.Add(int64(n))
	s.lastSuccess.Store(time.Now().UnixNano())
}

func (t *Tracker) TrackFailure(provider string) {
	t.getStats(provider).failures.Add(1)
}

func (t *Tracker) TrackRetry(provider string) {
	t.getStats(provider).retries.Add(1)
}

// TrackNotModified counts a 304 answer to a conditional request.
func (t *Tracker) TrackNotModified(provider string) {
	s := t.getStats(provider)
	s.notModified.Add(1)
	s.lastSuccess.Store(time.Now().UnixNano())
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats, len(t.stats))
	for k, v := range t.stats {
		ps := ProviderStats{
			Success:     v.success.Load(),
			Failures:    v.failures.Load(),
			Retries:     v.retries.Load(),
			NotModified: v.notModified.Load(),
			Bytes:       v.bytes.Load(),
		}
		if ns := v.lastSuccess.Load(); ns != 0 {
			ps.LastSuccess = time.Unix(0, ns)
		}
		result[k] = ps
	}
	return result
}
