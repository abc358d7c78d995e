package config

import (
	"context"
	"fmt"
	"strconv"

	"swiftgo/pkg/store"
)

// Provider combines the static Config with settings changed at runtime and
// persisted in the state store.
type Provider interface {
	SimProvider(ctx context.Context) string
	TraceSendIDs(ctx context.Context) bool
	MaxAircraft(ctx context.Context) int
	MaxRangeNM(ctx context.Context) float64
	FeedEnabled(ctx context.Context) bool

	SetTraceSendIDs(ctx context.Context, on bool) error
	SetMaxAircraft(ctx context.Context, n int) error
	SetSimProvider(ctx context.Context, name string) error
	SetFeedEnabled(ctx context.Context, on bool) error

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider. st may be nil.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

func (p *UnifiedProvider) SimProvider(ctx context.Context) string {
	fallback := p.base.Sim.Provider
	if fallback == "" {
		fallback = "simconnect"
	}
	return p.getString(ctx, KeySimSource, fallback)
}

func (p *UnifiedProvider) TraceSendIDs(ctx context.Context) bool {
	return p.getBool(ctx, KeyTracing, p.base.Traffic.TraceSendIDs)
}

func (p *UnifiedProvider) MaxAircraft(ctx context.Context) int {
	return p.getInt(ctx, KeyMaxAircraft, p.base.Traffic.MaxAircraft)
}

func (p *UnifiedProvider) MaxRangeNM(ctx context.Context) float64 {
	return p.getFloat64(ctx, KeyMaxRangeNM, p.base.Traffic.MaxRange.NM())
}

func (p *UnifiedProvider) FeedEnabled(ctx context.Context) bool {
	return p.getBool(ctx, KeyFeedEnabled, p.base.Vatsim.Enabled)
}

func (p *UnifiedProvider) SetTraceSendIDs(ctx context.Context, on bool) error {
	return p.set(ctx, KeyTracing, strconv.FormatBool(on))
}

func (p *UnifiedProvider) SetMaxAircraft(ctx context.Context, n int) error {
	return p.set(ctx, KeyMaxAircraft, strconv.Itoa(n))
}

// SetSimProvider persists the simulator backend used from the next start.
func (p *UnifiedProvider) SetSimProvider(ctx context.Context, name string) error {
	if name != "simconnect" && name != "mock" {
		return fmt.Errorf("unknown sim provider %q", name)
	}
	return p.set(ctx, KeySimSource, name)
}

func (p *UnifiedProvider) SetFeedEnabled(ctx context.Context, on bool) error {
	return p.set(ctx, KeyFeedEnabled, strconv.FormatBool(on))
}

// --- Helpers ---

func (p *UnifiedProvider) set(ctx context.Context, key, val string) error {
	if p.store == nil {
		return nil
	}
	return p.store.SetState(ctx, key, val)
}

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}

func (p *UnifiedProvider) getInt(ctx context.Context, key string, fallback int) int {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getFloat64(ctx context.Context, key string, fallback float64) float64 {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getBool(ctx context.Context, key string, fallback bool) bool {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val == "true"
		}
	}
	return fallback
}
