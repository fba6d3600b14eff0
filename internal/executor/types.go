package executor

import (
	"time"

	"mcptest/internal/invoke"
	"mcptest/internal/validate"
)

// Status is the terminal state of a test case.
type Status string

const (
	// StatusPassed indicates the invocation succeeded and every validator passed.
	StatusPassed Status = "PASSED"
	// StatusFailed indicates at least one validator failed.
	StatusFailed Status = "FAILED"
	// StatusSkipped indicates the case never invoked its tool, because a
	// dependency did not pass or the run was canceled.
	StatusSkipped Status = "SKIPPED"
	// StatusError indicates setup, injection or invocation broke before
	// validation could judge the outcome.
	StatusError Status = "ERROR"
)

// CleanupFault records a cleanup that could not complete. Faults never change
// a test's status; they are reported alongside it.
type CleanupFault struct {
	Description string `json:"description"`
	Error       string `json:"error"`
}

// TestResult is the full record of one executed (or skipped) test case.
type TestResult struct {
	Name          string             `json:"name"`
	Group         string             `json:"group"`
	Status        Status             `json:"status"`
	Response      *invoke.Response   `json:"response,omitempty"`
	Outcomes      []validate.Outcome `json:"outcomes,omitempty"`
	CleanupFaults []CleanupFault     `json:"cleanup_faults,omitempty"`
	// Error carries the failure detail for StatusError results and the skip
	// reason for StatusSkipped.
	Error     string        `json:"error,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// RunSummary aggregates a whole run. Results follow plan order, not
// completion order, so two runs of the same plan report identically.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errored   int           `json:"errored"`
	Results   []*TestResult `json:"results"`
}

// Succeeded reports whether the run had no failures and no errors. Skipped
// cases do not count against success.
func (s *RunSummary) Succeeded() bool {
	return s.Failed == 0 && s.Errored == 0
}
