package tracker

import (
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "vatsim"

	// Test Initial State
	stats := tr.Snapshot()
	if len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	tr.TrackSuccess(provider, 1200)
	tr.TrackSuccess(provider, 800)
	tr.TrackFailure(provider)
	tr.TrackRetry(provider)
	tr.TrackNotModified(provider)

	stats = tr.Snapshot()
	pStats, ok := stats[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}

	if pStats.Success != 2 {
		t.Errorf("Expected 2 Success, got %d", pStats.Success)
	}
	if pStats.Bytes != 2000 {
		t.Errorf("Expected 2000 Bytes, got %d", pStats.Bytes)
	}
	if pStats.Failures != 1 {
		t.Errorf("Expected 1 Failure, got %d", pStats.Failures)
	}
	if pStats.Retries != 1 {
		t.Errorf("Expected 1 Retry, got %d", pStats.Retries)
	}
	if pStats.NotModified != 1 {
		t.Errorf("Expected 1 NotModified, got %d", pStats.NotModified)
	}
	if pStats.LastSuccess.IsZero() {
		t.Error("Expected LastSuccess to be set")
	}
}

func TestTracker_FailureOnlyHasNoLastSuccess(t *testing.T) {
	tr := New()
	tr.TrackFailure("p")
	if s := tr.Snapshot()["p"]; !s.LastSuccess.IsZero() {
		t.Errorf("LastSuccess = %v, want zero", s.LastSuccess)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.TrackSuccess("p", 1)
			}
		}()
	}
	wg.Wait()
	if got := tr.Snapshot()["p"].Success; got != 800 {
		t.Errorf("Success = %d, want 800", got)
	}
}
