// Package vatsim polls the VATSIM data feed and keeps the remote aircraft
// provider in sync with the pilots around the own aircraft.
package vatsim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"swiftgo/pkg/geo"
	"swiftgo/pkg/request"
	"swiftgo/pkg/sim"
)

// DefaultURL is the public v3 data feed.
const DefaultURL = "https://data.vatsim.net/v3/vatsim-data.json"

// onGroundSpeed is the ground speed in knots below which a pilot counts as
// on the ground.
const onGroundSpeed = 40

// Sink receives the converted aircraft.
type Sink interface {
	Upsert(ac sim.Aircraft, now time.Time)
	Prune(cutoff time.Time) []string
}

// Config controls the poller.
type Config struct {
	URL      string
	Interval time.Duration
	RangeNM  float64       // 0 means everywhere
	StaleAge time.Duration // aircraft missing from the feed this long are dropped
	// Enabled is asked before every poll; nil means always.
	Enabled func(ctx context.Context) bool
}

// Feed is the data feed poller.
type Feed struct {
	cfg    Config
	client *request.Client
	sink   Sink
	own    sim.OwnAircraftProvider
	now    func() time.Time
	logger *slog.Logger

	prev       request.Response
	lastUpdate time.Time
}

// New creates a poller. own may be nil, then no range filter applies.
func New(cfg Config, client *request.Client, sink Sink, own sim.OwnAircraftProvider) *Feed {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.StaleAge <= 0 {
		cfg.StaleAge = 4 * cfg.Interval
	}
	return &Feed{
		cfg:    cfg,
		client: client,
		sink:   sink,
		own:    own,
		now:    time.Now,
		logger: slog.Default().With("component", "vatsim"),
	}
}

// Run polls until ctx is canceled. Poll errors are logged, not returned.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("Polling data feed", "url", f.cfg.URL, "interval", f.cfg.Interval)
	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()
	for {
		if f.cfg.Enabled == nil || f.cfg.Enabled(ctx) {
			if n, err := f.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				f.logger.Warn("Data feed poll failed", "error", err)
			} else if n >= 0 {
				f.logger.Debug("Data feed updated", "pilots", n)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll fetches the feed once and returns the number of pilots handed to the
// sink, or -1 if the feed did not change.
func (f *Feed) Poll(ctx context.Context) (int, error) {
	resp, err := f.client.GetConditional(ctx, f.cfg.URL, f.prev)
	if err != nil {
		return 0, err
	}
	now := f.now()
	if resp.NotModified {
		f.prune(now)
		return -1, nil
	}
	f.prev = resp

	var data Data
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return 0, fmt.Errorf("decode data feed: %w", err)
	}
	if !data.General.UpdateTimestamp.IsZero() && !data.General.UpdateTimestamp.After(f.lastUpdate) {
		f.prune(now)
		return -1, nil
	}
	f.lastUpdate = data.General.UpdateTimestamp

	n := 0
	for _, p := range f.inRange(data.Pilots) {
		f.sink.Upsert(ToAircraft(p), now)
		n++
	}
	f.prune(now)
	return n, nil
}

func (f *Feed) prune(now time.Time) {
	if gone := f.sink.Prune(now.Add(-f.cfg.StaleAge)); len(gone) > 0 {
		f.logger.Debug("Pilots left the feed", "callsigns", gone)
	}
}

func (f *Feed) inRange(pilots []Pilot) []Pilot {
	if f.cfg.RangeNM <= 0 || f.own == nil {
		return pilots
	}
	own := f.own.OwnAircraft().Situation
	if own.IsNull() {
		return pilots
	}
	origin := geo.Point{Lat: own.Latitude, Lon: own.Longitude}
	bound := geo.BoundAround(origin, f.cfg.RangeNM*geo.MetersPerNM)
	out := pilots[:0:0]
	for _, p := range pilots {
		pos := geo.Point{Lat: p.Latitude, Lon: p.Longitude}
		if geo.InBound(bound, pos) && geo.DistanceNM(origin, pos) <= f.cfg.RangeNM {
			out = append(out, p)
		}
	}
	return out
}

// ToAircraft converts a pilot. The feed has no parts, so gear, lights and
// engines are derived from speed and altitude.
func ToAircraft(p Pilot) sim.Aircraft {
	ac := sim.Aircraft{
		Callsign: strings.ToUpper(strings.TrimSpace(p.Callsign)),
		Airline:  airlineOf(p.Callsign),
		Engines:  2,
		Situation: sim.Situation{
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			AltitudeMSL: float64(p.Altitude),
			Heading:     float64(p.Heading),
			GroundSpeed: float64(p.Groundspeed),
			OnGround:    p.Groundspeed < onGroundSpeed,
			Time:        p.LastUpdated,
		},
	}
	if p.FlightPlan != nil {
		ac.ICAOType = strings.ToUpper(p.FlightPlan.AircraftShort)
	}
	ac.Parts = partsFor(ac.Situation, ac.Engines)
	return ac
}

func partsFor(s sim.Situation, engines int) sim.Parts {
	airborne := !s.OnGround
	low := s.AltitudeMSL < 10000
	p := sim.Parts{
		Lights: sim.Lights{
			Nav:     true,
			Beacon:  true,
			Logo:    true,
			Strobe:  airborne,
			Landing: airborne && low,
			Taxi:    s.OnGround && s.GroundSpeed > 3,
		},
		GearDown: s.OnGround || (low && s.GroundSpeed < 200),
	}
	for i := range min(engines, sim.MaxEngines) {
		p.EnginesOn[i] = true
	}
	return p
}

// airlineOf returns the ICAO airline designator of an airline callsign such
// as DLH123, or "" for registrations.
func airlineOf(callsign string) string {
	cs := strings.ToUpper(callsign)
	if len(cs) < 4 {
		return ""
	}
	for _, r := range cs[:3] {
		if !unicode.IsLetter(r) {
			return ""
		}
	}
	if !unicode.IsDigit(rune(cs[3])) {
		return ""
	}
	return cs[:3]
}
