package http

import "testing"

func TestRateLimiterCapsAtLimit(t *testing.T) {
	limiter := newRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !limiter.allow() {
			t.Fatalf("message %d should be allowed", i+1)
		}
	}
	if limiter.allow() {
		t.Fatal("message over the limit should be rejected")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !limiter.allow() {
			t.Fatal("disabled limiter must always allow")
		}
	}

	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("nil limiter must always allow")
	}
}
