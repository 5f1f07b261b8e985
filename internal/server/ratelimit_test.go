package server

import "testing"

func TestSubscriberRateLimiterAllowsUpToRateThenBlocks(t *testing.T) {
	rl := newSubscriberRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.allow("sub-a") {
			t.Fatalf("request %d: expected allow, got blocked", i)
		}
	}
	if rl.allow("sub-a") {
		t.Fatalf("expected the 4th request within the interval to be blocked")
	}
}

func TestSubscriberRateLimiterBucketsAreIndependentPerSubscriber(t *testing.T) {
	rl := newSubscriberRateLimiter(1)

	if !rl.allow("sub-a") {
		t.Fatalf("sub-a's first request should be allowed")
	}
	if rl.allow("sub-a") {
		t.Fatalf("sub-a's second request should be blocked")
	}
	if !rl.allow("sub-b") {
		t.Fatalf("sub-b must have its own bucket, independent of sub-a")
	}
}

func TestSubscriberRateLimiterForgetResetsBucket(t *testing.T) {
	rl := newSubscriberRateLimiter(1)

	if !rl.allow("sub-a") {
		t.Fatalf("first request should be allowed")
	}
	if rl.allow("sub-a") {
		t.Fatalf("second request before forget should be blocked")
	}

	rl.forget("sub-a")

	if !rl.allow("sub-a") {
		t.Fatalf("expected a fresh bucket immediately after forget")
	}
}

func TestSubscriberRateLimiterZeroRateDisablesLimit(t *testing.T) {
	rl := newSubscriberRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !rl.allow("sub-a") {
			t.Fatalf("rate 0 must mean unlimited, blocked at request %d", i)
		}
	}
}
