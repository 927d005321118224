package pipeline

import (
	"testing"
	"time"
)

func TestRetryDelayDoubles(t *testing.T) {
	policy := DefaultRetryPolicy()
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 10 * time.Second},
		{1, 20 * time.Second},
		{2, 40 * time.Second},
		{3, 80 * time.Second},
		{5, 320 * time.Second},
		{6, 600 * time.Second},  // would be 640, capped
		{10, 600 * time.Second}, // stays capped
		{-1, 10 * time.Second},  // clamped to first attempt
	}
	for _, tc := range cases {
		if got := policy.Delay(tc.attempt); got != tc.want {
			t.Errorf("Delay(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryDelayIsDeterministic(t *testing.T) {
	policy := DefaultRetryPolicy()
	for attempt := 0; attempt < 8; attempt++ {
		first := policy.Delay(attempt)
		for i := 0; i < 10; i++ {
			if got := policy.Delay(attempt); got != first {
				t.Fatalf("Delay(%d) varied between calls: %s vs %s", attempt, first, got)
			}
		}
	}
}

func TestRetryDelayNeverExceedsMax(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 100, BaseDelay: 3 * time.Second, MaxDelay: 45 * time.Second}
	for attempt := 0; attempt < 64; attempt++ {
		if got := policy.Delay(attempt); got > policy.MaxDelay {
			t.Fatalf("Delay(%d) = %s exceeds max %s", attempt, got, policy.MaxDelay)
		}
	}
}

func TestRetryExhausted(t *testing.T) {
	policy := DefaultRetryPolicy() // MaxAttempts 3
	if policy.Exhausted(0) {
		t.Error("attempt 0 should allow a retry")
	}
	if policy.Exhausted(1) {
		t.Error("attempt 1 should allow a retry")
	}
	if !policy.Exhausted(2) {
		t.Error("attempt 2 is the last; no further retries")
	}
}
