package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiterAllowsBurstThenRejects(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("first two requests within burst should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("third immediate request should exceed the burst")
	}

	stats := rl.GetStats()
	if stats["allowed"] != 2 || stats["rejected"] != 1 {
		t.Fatalf("GetStats = %+v", stats)
	}
}

func TestIPRateLimiterTracksIPsIndependently(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first IP's first request should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("a different IP must have its own independent budget")
	}
}

func TestIPRateLimiterMiddlewareRejectsOverLimit(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec1.Code)
	}

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec2.Code)
	}
}

func TestGetClientIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := GetClientIP(req); got != "203.0.113.7" {
		t.Fatalf("GetClientIP = %q, want 203.0.113.7", got)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "127.0.0.1:5555"
	if got := GetClientIP(req2); got != "127.0.0.1" {
		t.Fatalf("GetClientIP fallback = %q, want 127.0.0.1", got)
	}
}

func TestIsAllowedOrigin(t *testing.T) {
	if !IsAllowedOrigin("http://localhost:5173") {
		t.Fatalf("any http://localhost origin should be allowed")
	}
	if IsAllowedOrigin("") {
		t.Fatalf("empty origin must be rejected")
	}
	if IsAllowedOrigin("https://evil.example.com") {
		t.Fatalf("unlisted origin must be rejected")
	}
}
