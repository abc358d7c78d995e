package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"swiftgo/pkg/config"
)

type stateMap map[string]string

func (m stateMap) GetState(_ context.Context, key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m stateMap) SetState(_ context.Context, key, val string) error {
	m[key] = val
	return nil
}

func (m stateMap) DeleteState(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestRun(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	dir := t.TempDir()
	tempConfig := `
server:
    address: localhost:0  # 0 lets OS choose free port
log:
    server:
        path: "{dir}/logs/test_server.log"
        level: "debug"
    trace:
        path: "{dir}/logs/test_trace.log"
        level: "debug"
db:
    path: "{dir}/test.db"
sim:
    provider: mock
vatsim:
    enabled: false
mock:
    latency: 0s
    traffic: 5
`
	path := filepath.Join(dir, "swiftgo_test.yaml")
	if err := os.WriteFile(path, []byte(strings.ReplaceAll(tempConfig, "{dir}", filepath.ToSlash(dir))), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Cancels quickly, only the startup sequence is verified.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := run(ctx, path); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "test.db")); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestTrafficConfig(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Traffic.MaxAircraft = 20
	p := config.NewProvider(cfg, stateMap{})
	if err := p.SetMaxAircraft(ctx, 7); err != nil {
		t.Fatal(err)
	}

	got := trafficConfig(ctx, cfg, p)
	if got.MaxAircraft != 7 {
		t.Errorf("MaxAircraft = %d, want persisted 7", got.MaxAircraft)
	}
	if got.MaxRangeNM != 100 {
		t.Errorf("MaxRangeNM = %v, want 100", got.MaxRangeNM)
	}
	if got.ProbeTitle != cfg.Traffic.ProbeTitle {
		t.Errorf("ProbeTitle = %q", got.ProbeTitle)
	}
}
