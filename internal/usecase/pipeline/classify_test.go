package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want OutcomeKind
	}{
		{"nil error", nil, OutcomeSuccess},
		{"timeout message", errors.New("dial tcp: i/o timeout"), OutcomeTransient},
		{"rate limit", errors.New("provider returned 429 too many requests"), OutcomeTransient},
		{"bad gateway", errors.New("groq returned status 502"), OutcomeTransient},
		{"context deadline", context.DeadlineExceeded, OutcomeTransient},
		{"wrapped deadline", fmt.Errorf("stage: %w", context.DeadlineExceeded), OutcomeTransient},
		{"unauthorized", errors.New("request unauthorized: bad api key"), OutcomePermanent},
		{"not found", errors.New("object not found in bucket"), OutcomePermanent},
		{"unsupported format", errors.New("unsupported audio codec"), OutcomePermanent},
		{"unknown error defaults transient", errors.New("something odd happened"), OutcomeTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got.Kind != tc.want {
				t.Errorf("Classify(%v).Kind = %s, want %s", tc.err, got.Kind, tc.want)
			}
		})
	}
}

func TestClassifyExplicitPermanentWins(t *testing.T) {
	// An explicitly marked permanent error stays permanent even when its
	// message matches a retryable fragment.
	err := AsPermanent(errors.New("timeout while validating input"))
	if got := Classify(err); got.Kind != OutcomePermanent {
		t.Errorf("marked error classified as %s, want permanent", got.Kind)
	}
}

func TestAsPermanentPreservesChain(t *testing.T) {
	base := errors.New("root cause")
	wrapped := AsPermanent(fmt.Errorf("context: %w", base))
	if !errors.Is(wrapped, base) {
		t.Error("AsPermanent should preserve the error chain")
	}
	if AsPermanent(nil) != nil {
		t.Error("AsPermanent(nil) should be nil")
	}
}
