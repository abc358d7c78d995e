package request

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"swiftgo/pkg/tracker"
)

func fastClient(tr *tracker.Tracker) *Client {
	return New(tr, WithRetry(3, time.Millisecond), WithGap(0), WithBackoff(NewBackoff(time.Millisecond, 5*time.Millisecond)))
}

func TestGet_Sequential(t *testing.T) {
	var conc int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&conc, 1)
		defer atomic.AddInt32(&conc, -1)

		if current > 1 {
			t.Errorf("Concurrency detected! Expected sequential.")
		}
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(200)
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Logf("Write failed: %v", err)
		}
	}))
	defer svr.Close()

	tr := tracker.New()
	client := fastClient(tr)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Get(context.Background(), svr.URL); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := tr.Snapshot()["127.0.0.1"].Success; got != 3 {
		t.Errorf("Success = %d, want 3", got)
	}
}

func TestGet_Retry(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(429) // Too Many Requests
			return
		}
		w.WriteHeader(200)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Logf("Write failed: %v", err)
		}
	}))
	defer svr.Close()

	tr := tracker.New()
	client := fastClient(tr)

	body, err := client.Get(context.Background(), svr.URL)
	if err != nil {
		t.Fatalf("Expected success after retry, got error: %v", err)
	}
	if string(body) != "success" {
		t.Errorf("Expected 'success', got '%s'", string(body))
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
	if got := tr.Snapshot()["127.0.0.1"].Retries; got != 2 {
		t.Errorf("Retries = %d, want 2", got)
	}
}

func TestGet_RetriesExhausted(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer svr.Close()

	tr := tracker.New()
	client := fastClient(tr)

	_, err := client.Get(context.Background(), svr.URL)
	if !errors.Is(err, ErrMaxRetries) {
		t.Fatalf("err = %v, want ErrMaxRetries", err)
	}
	if got := tr.Snapshot()["127.0.0.1"].Failures; got != 1 {
		t.Errorf("Failures = %d, want 1", got)
	}
}

func TestGet_StatusError(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer svr.Close()

	_, err := fastClient(nil).Get(context.Background(), svr.URL)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != 404 {
		t.Errorf("Code = %d, want 404", se.Code)
	}
}

func TestGetConditional(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		if _, err := w.Write([]byte(`{"pilots":[]}`)); err != nil {
			t.Logf("Write failed: %v", err)
		}
	}))
	defer svr.Close()

	tr := tracker.New()
	client := fastClient(tr)

	first, err := client.GetConditional(context.Background(), svr.URL, Response{})
	if err != nil {
		t.Fatal(err)
	}
	if first.NotModified || first.ETag != `"v1"` || string(first.Body) != `{"pilots":[]}` {
		t.Fatalf("first = %+v", first)
	}

	second, err := client.GetConditional(context.Background(), svr.URL, first)
	if err != nil {
		t.Fatal(err)
	}
	if !second.NotModified || len(second.Body) != 0 {
		t.Errorf("second = %+v, want not modified", second)
	}
	if got := tr.Snapshot()["127.0.0.1"].NotModified; got != 1 {
		t.Errorf("NotModified = %d, want 1", got)
	}
}

func TestGet_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer svr.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := fastClient(nil).Get(ctx, svr.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestGet_RetryAfterPenalizesProvider(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer svr.Close()

	b := NewBackoff(time.Millisecond, time.Minute)
	client := New(tracker.New(), WithRetry(1, time.Millisecond), WithGap(0), WithBackoff(b))

	before := time.Now()
	_, err := client.Get(context.Background(), svr.URL)
	if !errors.Is(err, ErrMaxRetries) {
		t.Fatalf("Get = %v, want ErrMaxRetries", err)
	}

	failures, next := b.State("127.0.0.1")
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
	if wait := next.Sub(before); wait < 6*time.Second || wait > 8*time.Second {
		t.Errorf("next request in %v, want about 7s from Retry-After", wait)
	}
}
