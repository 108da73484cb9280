package core

// Result is the typed outcome of a tool dispatch. A tool either succeeds
// with user-consumable text or soft-fails with a reason string; neither
// case is an error the orchestration loop has to abort on.
type Result struct {
	text   string
	reason string
	failed bool
}

// Success wraps a successful tool result.
func Success(text string) Result {
	return Result{text: text}
}

// SoftFailure wraps a tool failure as a descriptive value.
func SoftFailure(reason string) Result {
	return Result{reason: reason, failed: true}
}

// Failed reports whether the dispatch soft-failed.
func (r Result) Failed() bool {
	return r.failed
}

// Text returns the success text, or "" for failures.
func (r Result) Text() string {
	return r.text
}

// Reason returns the failure description, or "" for successes.
func (r Result) Reason() string {
	return r.reason
}

// Observation renders the result as the observation string fed back to
// the model. Failures render their reason so the model can recover.
func (r Result) Observation() string {
	if r.failed {
		return r.reason
	}
	return r.text
}
