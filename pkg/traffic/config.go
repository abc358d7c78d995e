package traffic

import (
	"time"

	"swiftgo/pkg/simobject"
)

// Retry thresholds
const (
	// ThresholdAddException is how many CREATE_OBJECT_FAILED retries an aircraft gets.
	ThresholdAddException = 1
	// ThresholdAddedAndDirectlyRemoved is how many "added, then removed by
	// the simulator" retries an aircraft gets.
	ThresholdAddedAndDirectlyRemoved = 2
	// IgnoreReceiveExceptions is the number of uncorrelated exceptions logged
	// before the log is muted.
	IgnoreReceiveExceptions = 10
)

// Config tunes the manager. Zero values are replaced by DefaultConfig values.
type Config struct {
	AppName string

	DispatchInterval  time.Duration
	ReconnectInterval time.Duration
	WatchdogTimeout   time.Duration
	ReconcileInterval time.Duration
	UpdateInterval    time.Duration

	// VerifyDelay is the wait between the object id assignment and the
	// verification of an add.
	VerifyDelay      time.Duration
	AddAgainDelay    time.Duration
	OutdatedPending  time.Duration
	MaxAircraft      int
	MaxRangeNM       float64
	MaxPendingAdds   int
	TraceSendIDs     bool
	MaxSendIDTraces  int
	DefaultModel     string
	ProbeTitle       string
	ElevationRefresh time.Duration
	// LightsSettle is how long light reports are not trusted after
	// toggling, they may have been sampled before the toggles arrived.
	LightsSettle time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		AppName:           "SwiftGo",
		DispatchInterval:  10 * time.Millisecond,
		ReconnectInterval: 5 * time.Second,
		WatchdogTimeout:   5 * time.Second,
		ReconcileInterval: time.Second,
		UpdateInterval:    50 * time.Millisecond,
		VerifyDelay:       time.Second,
		AddAgainDelay:     2500 * time.Millisecond,
		OutdatedPending:   simobject.OutdatedPendingThreshold,
		MaxAircraft:       50,
		MaxRangeNM:        100,
		MaxPendingAdds:    1,
		MaxSendIDTraces:   MaxSendIDTraces,
		ProbeTitle:        "OrbxLibs_Probe",
		ElevationRefresh:  30 * time.Second,
		LightsSettle:      1500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AppName == "" {
		c.AppName = d.AppName
	}
	setDuration := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	setDuration(&c.DispatchInterval, d.DispatchInterval)
	setDuration(&c.ReconnectInterval, d.ReconnectInterval)
	setDuration(&c.WatchdogTimeout, d.WatchdogTimeout)
	setDuration(&c.ReconcileInterval, d.ReconcileInterval)
	setDuration(&c.UpdateInterval, d.UpdateInterval)
	setDuration(&c.VerifyDelay, d.VerifyDelay)
	setDuration(&c.AddAgainDelay, d.AddAgainDelay)
	setDuration(&c.OutdatedPending, d.OutdatedPending)
	setDuration(&c.ElevationRefresh, d.ElevationRefresh)
	setDuration(&c.LightsSettle, d.LightsSettle)
	if c.MaxAircraft <= 0 {
		c.MaxAircraft = d.MaxAircraft
	}
	if c.MaxPendingAdds <= 0 {
		c.MaxPendingAdds = d.MaxPendingAdds
	}
	if c.MaxSendIDTraces <= 0 {
		c.MaxSendIDTraces = d.MaxSendIDTraces
	}
	return c
}
