package pipeline

import "time"

// RetryPolicy controls how transient stage failures are re-driven. Delay is
// pure exponential doubling capped at MaxDelay, with no jitter, so the
// schedule for a given attempt is fully predictable.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the production defaults: three attempts at
// 10s, 20s and 40s before the task is declared failed.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Second,
		MaxDelay:    600 * time.Second,
	}
}

// Delay returns the wait before re-running the given zero-based attempt.
// Attempt 0 waits BaseDelay, attempt 1 twice that, and so on up to MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Exhausted reports whether the next attempt after the given one would
// exceed the attempt budget.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt+1 >= p.MaxAttempts
}
