package config

import (
	"context"
	"testing"
)

// MockStateStore implements store.StateStore for testing.
type MockStateStore struct {
	data map[string]string
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{data: make(map[string]string)}
}

func (m *MockStateStore) GetState(ctx context.Context, key string) (string, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *MockStateStore) SetState(ctx context.Context, key, val string) error {
	m.data[key] = val
	return nil
}

func (m *MockStateStore) DeleteState(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestUnifiedProvider(t *testing.T) {
	ctx := context.Background()
	baseCfg := DefaultConfig()
	baseCfg.Sim.Provider = "mock"
	baseCfg.Traffic.TraceSendIDs = false
	baseCfg.Traffic.MaxAircraft = 40
	baseCfg.Traffic.MaxRange = Distance(50 * 1852)

	st := NewMockStateStore()
	p := NewProvider(baseCfg, st)

	tests := []struct {
		name  string
		setup func()
		check func(t *testing.T)
	}{
		{
			name:  "Defaults",
			setup: func() {},
			check: func(t *testing.T) {
				if got := p.SimProvider(ctx); got != "mock" {
					t.Errorf("SimProvider = %q, want mock", got)
				}
				if p.TraceSendIDs(ctx) {
					t.Error("TraceSendIDs should default to config")
				}
				if got := p.MaxAircraft(ctx); got != 40 {
					t.Errorf("MaxAircraft = %d, want 40", got)
				}
				if got := p.MaxRangeNM(ctx); got != 50 {
					t.Errorf("MaxRangeNM = %v, want 50", got)
				}
				if !p.FeedEnabled(ctx) {
					t.Error("FeedEnabled should default to true")
				}
			},
		},
		{
			name: "StoreOverrides",
			setup: func() {
				st.data[KeySimSource] = "simconnect"
				st.data[KeyMaxRangeNM] = "25.5"
				st.data[KeyFeedEnabled] = "false"
			},
			check: func(t *testing.T) {
				if got := p.SimProvider(ctx); got != "simconnect" {
					t.Errorf("SimProvider = %q, want simconnect", got)
				}
				if got := p.MaxRangeNM(ctx); got != 25.5 {
					t.Errorf("MaxRangeNM = %v, want 25.5", got)
				}
				if p.FeedEnabled(ctx) {
					t.Error("FeedEnabled should be overridden")
				}
			},
		},
		{
			name: "Setters",
			setup: func() {
				if err := p.SetTraceSendIDs(ctx, true); err != nil {
					t.Fatal(err)
				}
				if err := p.SetMaxAircraft(ctx, 12); err != nil {
					t.Fatal(err)
				}
				if err := p.SetSimProvider(ctx, "mock"); err != nil {
					t.Fatal(err)
				}
				if err := p.SetFeedEnabled(ctx, true); err != nil {
					t.Fatal(err)
				}
				if err := p.SetSimProvider(ctx, "xplane"); err == nil {
					t.Error("expected error for unknown sim provider")
				}
			},
			check: func(t *testing.T) {
				if !p.TraceSendIDs(ctx) {
					t.Error("TraceSendIDs not persisted")
				}
				if got := p.MaxAircraft(ctx); got != 12 {
					t.Errorf("MaxAircraft = %d, want 12", got)
				}
				if got := p.SimProvider(ctx); got != "mock" {
					t.Errorf("SimProvider = %q, want mock", got)
				}
				if !p.FeedEnabled(ctx) {
					t.Error("FeedEnabled not persisted")
				}
			},
		},
		{
			name: "InvalidValuesFallBack",
			setup: func() {
				st.data[KeyMaxAircraft] = "many"
			},
			check: func(t *testing.T) {
				if got := p.MaxAircraft(ctx); got != 40 {
					t.Errorf("MaxAircraft = %d, want fallback 40", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			tt.check(t)
		})
	}
}

func TestUnifiedProvider_NilStore(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(DefaultConfig(), nil)
	if err := p.SetMaxAircraft(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if got := p.MaxAircraft(ctx); got != 50 {
		t.Errorf("MaxAircraft = %d, want 50", got)
	}
}
