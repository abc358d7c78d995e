package aircraft

import (
	"sync"

	"swiftgo/pkg/sim"
)

// OwnProvider mirrors the user aircraft.
type OwnProvider struct {
	mu  sync.RWMutex
	own sim.OwnAircraft
}

func NewOwnProvider() *OwnProvider {
	return &OwnProvider{}
}

func (o *OwnProvider) OwnAircraft() sim.OwnAircraft {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.own
}

func (o *OwnProvider) UpdateOwnSituation(s sim.Situation, altitudeAGL float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.own.Situation = s
	o.own.AltitudeAGL = altitudeAGL
	o.own.Updated = s.Time
}

func (o *OwnProvider) UpdateOwnModel(title string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.own.ModelString = title
}
