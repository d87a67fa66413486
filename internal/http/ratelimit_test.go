package http

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	var metrics securityMetrics

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1", &metrics) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1", &metrics) {
		t.Fatal("fourth request in the window should be rejected")
	}
	if atomic.LoadInt64(&metrics.rateLimitHits) != 1 {
		t.Errorf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}
	if !rl.allow("10.0.0.2", &metrics) {
		t.Fatal("other clients have their own budget")
	}

	now = now.Add(rateLimitWindow + time.Second)
	if !rl.allow("10.0.0.1", &metrics) {
		t.Fatal("a new window should reset the budget")
	}
}

func TestRateLimiter_CleanupStaleEntries(t *testing.T) {
	rl := newRateLimiter(0)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.allow("10.0.0.1", nil)

	now = now.Add(staleClientAge + time.Minute)
	rl.allow("10.0.0.2", nil)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if rl.limit != defaultRequestsPerMinute {
		t.Errorf("limit = %d, want default %d", rl.limit, defaultRequestsPerMinute)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1)
	rl.stop()
	rl.stop()
}
