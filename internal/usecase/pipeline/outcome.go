package pipeline

// OutcomeKind classifies how a stage execution finished
type OutcomeKind int

const (
	// OutcomeSuccess means the stage completed and the chain may advance
	OutcomeSuccess OutcomeKind = iota
	// OutcomeTransient means the stage failed in a way that may clear on retry
	OutcomeTransient
	// OutcomePermanent means retrying cannot help; the task goes to the dead letter list
	OutcomePermanent
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransient:
		return "transient_failure"
	case OutcomePermanent:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of running a stage. Stages report failure as data
// rather than panicking or leaking provider errors upward, which keeps the
// retry decision in one place.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Success returns a successful outcome
func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

// Transient wraps err as a retryable failure
func Transient(err error) Outcome {
	return Outcome{Kind: OutcomeTransient, Err: err}
}

// Permanent wraps err as a non-retryable failure
func Permanent(err error) Outcome {
	return Outcome{Kind: OutcomePermanent, Err: err}
}
