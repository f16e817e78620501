package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/het-labo/stixn-dewi/pkg/logging"
)

func TestRateLimiterRefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if rl.Allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("expected other client to have its own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Fatalf("expected a token after one second")
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(time.Hour)
	rl.evictIdle(10 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.buckets) != 0 {
		t.Fatalf("expected idle bucket to be evicted, have %d", len(rl.buckets))
	}
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	rl := NewRateLimiter(0.5, 1)
	defer rl.Stop()
	h := rl.Middleware(okHandler(nil))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/hubspot/contact", nil)
		req.RemoteAddr = "10.0.0.1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
		if want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "2" {
			t.Fatalf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
		}
	}
}

func TestRequestLoggerEchoesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/hubspot/contact", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["level"] != "WARN" || line["status"] != float64(400) || line["request_id"] != "req-1" {
		t.Fatalf("unexpected log line %v", line)
	}
}
