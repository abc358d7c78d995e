// Package request is the HTTP client used for network data feeds. Requests to
// one provider are serialized through a queue, retried with exponential
// backoff and counted by the tracker.
package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"swiftgo/pkg/tracker"
	"swiftgo/pkg/version"
)

// ErrMaxRetries is returned when every attempt of a request failed.
var ErrMaxRetries = errors.New("max retries exceeded")

// StatusError is returned for non retryable HTTP status codes.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d from %s", e.Code, e.URL)
}

// Response is the result of a conditional GET.
type Response struct {
	Body         []byte
	ETag         string
	LastModified string
	NotModified  bool
}

// Client handles HTTP requests with queuing, backoff, and tracking.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	backoff    *Backoff

	maxAttempts int
	baseDelay   time.Duration
	gap         time.Duration

	// Queues per provider (domain)
	queues map[string]chan job
	mu     sync.Mutex // Protects queues map
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry sets the attempts per request and the first retry delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = max(attempts, 1)
		c.baseDelay = baseDelay
	}
}

// WithGap sets the pause between two requests to the same provider.
func WithGap(d time.Duration) Option {
	return func(c *Client) { c.gap = d }
}

// WithBackoff replaces the provider backoff.
func WithBackoff(b *Backoff) Option {
	return func(c *Client) { c.backoff = b }
}

// job represents a queued request.
type job struct {
	req      *http.Request
	headers  map[string]string
	respChan chan jobResult
}

type jobResult struct {
	resp Response
	err  error
}

// New creates a new Client. t may be nil.
func New(t *tracker.Tracker, opts ...Option) *Client {
	if t == nil {
		t = tracker.New()
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		tracker:     t,
		backoff:     NewBackoff(2*time.Second, 2*time.Minute),
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
		gap:         100 * time.Millisecond,
		queues:      make(map[string]chan job),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tracker returns the request counters.
func (c *Client) Tracker() *tracker.Tracker {
	return c.tracker
}

// Get performs a GET request and returns the body.
func (c *Client) Get(ctx context.Context, u string) ([]byte, error) {
	resp, err := c.GetWithHeaders(ctx, u, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// GetConditional sends If-None-Match and If-Modified-Since from prev. An
// unchanged resource yields a Response with NotModified set and no body.
func (c *Client) GetConditional(ctx context.Context, u string, prev Response) (Response, error) {
	headers := map[string]string{}
	if prev.ETag != "" {
		headers["If-None-Match"] = prev.ETag
	}
	if prev.LastModified != "" {
		headers["If-Modified-Since"] = prev.LastModified
	}
	return c.GetWithHeaders(ctx, u, headers)
}

// GetWithHeaders performs a GET request with custom headers.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string) (Response, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return Response{}, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	c.dispatch(provider, job{req: req, headers: headers, respChan: respChan})

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case res := <-respChan:
		return res.resp, res.err
	}
}

func normalizeProvider(host string) string {
	host = strings.ToLower(host)
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	// data, status and api hosts share the rate limit
	if strings.HasSuffix(host, ".vatsim.net") || host == "vatsim.net" {
		return "vatsim"
	}
	if strings.HasSuffix(host, ".ivao.aero") {
		return "ivao"
	}
	return host
}

// dispatch sends the job to the provider's queue, creating the queue/worker if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	q, ok := c.queues[provider]
	if !ok {
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}
	c.mu.Unlock()

	// We block here if the queue is full, effectively throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		ctx := j.req.Context()
		if ctx.Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "provider", provider, "error", ctx.Err())
			j.respChan <- jobResult{err: ctx.Err()}
			continue
		}
		if err := c.backoff.Wait(ctx, provider); err != nil {
			j.respChan <- jobResult{err: err}
			continue
		}

		uaMatch := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				uaMatch = true
			}
		}
		if !uaMatch {
			j.req.Header.Set("User-Agent", version.UserAgent())
		}

		resp, retryAfter, err := c.executeWithBackoff(provider, j.req)
		switch {
		case err != nil:
			c.tracker.TrackFailure(provider)
			if ctx.Err() == nil {
				delay := c.backoff.RecordFailure(provider, retryAfter)
				slog.Debug("Provider penalized", "provider", provider, "delay", delay.Round(time.Millisecond))
			}
		case resp.NotModified:
			c.tracker.TrackNotModified(provider)
			c.backoff.RecordSuccess(provider)
		default:
			c.tracker.TrackSuccess(provider, len(resp.Body))
			c.backoff.RecordSuccess(provider)
		}

		j.respChan <- jobResult{resp: resp, err: err}

		if c.gap > 0 {
			time.Sleep(c.gap)
		}
	}
}

// executeWithBackoff attempts the request with exponential backoff on
// retryable errors. It also returns the last Retry-After the server sent.
func (c *Client) executeWithBackoff(provider string, req *http.Request) (Response, time.Duration, error) {
	var retryAfter time.Duration
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if req.Context().Err() != nil {
			return Response{}, retryAfter, req.Context().Err()
		}
		if attempt > 0 {
			c.tracker.TrackRetry(provider)
		}

		slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return Response{}, retryAfter, req.Context().Err()
			}
			slog.Warn("Request failed, retrying", "url", req.URL, "attempt", attempt+1, "error", err)
			if err := c.sleep(req.Context(), attempt, 0); err != nil {
				return Response{}, retryAfter, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode < 600) {
			resp.Body.Close()
			retryAfter = parseRetryAfter(resp.Header, time.Now())
			slog.Warn("API Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1, "retry_after", retryAfter)
			if attempt == c.maxAttempts-1 {
				break
			}
			if err := c.sleep(req.Context(), attempt, retryAfter); err != nil {
				return Response{}, retryAfter, err
			}
			continue
		}

		if resp.StatusCode == http.StatusNotModified {
			resp.Body.Close()
			return Response{
				NotModified:  true,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}, 0, nil
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return Response{}, 0, &StatusError{Code: resp.StatusCode, URL: req.URL.String()}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return Response{}, 0, fmt.Errorf("read error: %w", err)
		}
		return Response{
			Body:         body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, 0, nil
	}

	return Response{}, retryAfter, fmt.Errorf("%s: %w", req.URL, ErrMaxRetries)
}

// sleep waits before the next attempt, at least hint when the server gave one.
func (c *Client) sleep(ctx context.Context, attempt int, hint time.Duration) error {
	d := max(time.Duration(math.Pow(2, float64(attempt)))*c.baseDelay, hint)
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
