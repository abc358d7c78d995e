package request

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Backoff spaces the requests to a provider after failures. The delay grows
// exponentially with the failure count unless the server asked for a
// specific one with Retry-After.
type Backoff struct {
	mu        sync.Mutex
	providers map[string]*penalty
	baseDelay time.Duration
	maxDelay  time.Duration

	now    func() time.Time
	jitter func() float64 // [0,1)
}

type penalty struct {
	failures    int
	nextAllowed time.Time
}

// NewBackoff creates a backoff with delays from baseDelay up to maxDelay.
func NewBackoff(baseDelay, maxDelay time.Duration) *Backoff {
	return &Backoff{
		providers: make(map[string]*penalty),
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		now:       time.Now,
		jitter:    rand.Float64,
	}
}

// Wait blocks until the provider may be asked again or ctx ends.
func (b *Backoff) Wait(ctx context.Context, provider string) error {
	_, next := b.State(provider)
	wait := next.Sub(b.now())
	if wait <= 0 {
		return nil
	}
	slog.Debug("Provider backing off", "provider", provider, "wait", wait.Round(time.Millisecond))
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordFailure counts a failure and returns the delay until the next
// request. A positive retryAfter replaces the computed delay, capped at
// maxDelay.
func (b *Backoff) RecordFailure(provider string, retryAfter time.Duration) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.providers[provider]
	if !ok {
		p = &penalty{}
		b.providers[provider] = p
	}
	p.failures++

	delay := b.delay(p.failures)
	if retryAfter > 0 {
		delay = min(retryAfter, b.maxDelay)
	}
	p.nextAllowed = b.now().Add(delay)
	return delay
}

// RecordSuccess forgives one failure. The provider is free again once all
// are forgiven.
func (b *Backoff) RecordSuccess(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.providers[provider]
	if !ok {
		return
	}
	if p.failures > 0 {
		p.failures--
	}
	if p.failures == 0 {
		delete(b.providers, provider)
	}
}

// delay is baseDelay * 2^(failures-1) capped at maxDelay, plus up to 10% jitter.
func (b *Backoff) delay(failures int) time.Duration {
	d := b.baseDelay
	for i := 1; i < failures && d < b.maxDelay; i++ {
		d *= 2
	}
	d = min(d, b.maxDelay)
	return d + time.Duration(b.jitter()*0.1*float64(d))
}

// State returns the failure count and the earliest time of the next request.
func (b *Backoff) State(provider string) (failures int, nextAllowed time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.providers[provider]; ok {
		return p.failures, p.nextAllowed
	}
	return 0, time.Time{}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP
// date. It returns 0 if the header is missing or unusable.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
