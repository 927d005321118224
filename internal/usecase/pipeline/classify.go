package pipeline

import (
	"context"
	"errors"
	"strings"
)

// permanentMarker tags errors that must never be retried
type permanentMarker struct {
	err error
}

func (e *permanentMarker) Error() string { return e.err.Error() }
func (e *permanentMarker) Unwrap() error { return e.err }

// AsPermanent wraps err so Classify treats it as non-retryable regardless of
// its message.
func AsPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentMarker{err: err}
}

// retryableFragments are message substrings that indicate a transient
// provider or network problem worth retrying.
var retryableFragments = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"network",
	"temporary",
	"unavailable",
	"rate limit",
	"too many requests",
	"429",
	"500",
	"502",
	"503",
	"504",
}

// permanentFragments are message substrings that indicate the input itself is
// bad and retrying cannot help.
var permanentFragments = []string{
	"invalid",
	"unauthorized",
	"forbidden",
	"not found",
	"unsupported",
	"400",
	"401",
	"403",
	"404",
	"422",
}

// Classify turns a stage error into an outcome. Explicitly marked permanent
// errors and recognisable client-side failures stop the retry loop; anything
// else is assumed transient so a flaky provider gets its retries.
func Classify(err error) Outcome {
	if err == nil {
		return Success()
	}

	var marker *permanentMarker
	if errors.As(err, &marker) {
		return Permanent(err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient(err)
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return Transient(err)
		}
	}
	for _, fragment := range permanentFragments {
		if strings.Contains(msg, fragment) {
			return Permanent(err)
		}
	}
	return Transient(err)
}
