package sim

import "time"

// VerticalSpeedBuffer smooths vertical speed from altitude samples over a
// time window. Network feeds report no vertical speed, so it is derived
// from consecutive positions. Not safe for concurrent use.
type VerticalSpeedBuffer struct {
	samples []altSample
	window  time.Duration
}

type altSample struct {
	at  time.Time
	alt float64
}

// NewVerticalSpeedBuffer creates a buffer averaging over window.
func NewVerticalSpeedBuffer(window time.Duration) *VerticalSpeedBuffer {
	return &VerticalSpeedBuffer{window: window}
}

// Update adds an altitude sample in feet and returns the vertical speed in ft/min.
// Samples not newer than the last one are ignored.
func (b *VerticalSpeedBuffer) Update(at time.Time, alt float64) float64 {
	if n := len(b.samples); n > 0 && !at.After(b.samples[n-1].at) {
		return b.rate()
	}
	b.samples = append(b.samples, altSample{at: at, alt: alt})

	// keep one sample older than the window as the anchor
	cutoff := at.Add(-b.window)
	drop := 0
	for drop < len(b.samples)-2 && b.samples[drop+1].at.Before(cutoff) {
		drop++
	}
	b.samples = b.samples[drop:]
	return b.rate()
}

func (b *VerticalSpeedBuffer) rate() float64 {
	if len(b.samples) < 2 {
		return 0
	}
	first, last := b.samples[0], b.samples[len(b.samples)-1]
	dt := last.at.Sub(first.at).Seconds()
	if dt <= 0 {
		return 0
	}
	return (last.alt - first.alt) / dt * 60
}

// Reset clears the buffer, e.g. after a teleport.
func (b *VerticalSpeedBuffer) Reset() {
	b.samples = b.samples[:0]
}
