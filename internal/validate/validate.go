// Package validate defines the checks applied to a recorded tool response
// and to live external-system state after a tool invocation.
package validate

import (
	"context"

	"mcptest/internal/invoke"
	"mcptest/internal/state"
)

// Outcome is the uniform result of one validator evaluation.
type Outcome struct {
	// Description identifies the validator for reporting.
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Message     string `json:"message"`
}

// Target carries everything a validator may inspect: the recorded response of
// the test's own invocation, the invocation params, an accessor for live
// external state, and the decoded responses of dependency tests for
// placeholder injection.
type Target struct {
	Response  *invoke.Response
	Params    map[string]interface{}
	State     state.Accessor
	Responses map[string]interface{}
}

// Validator is a single check against a test's outcome. Implementations must
// not panic past Evaluate; the executor recovers, but a recovered panic is
// reported as a validator fault rather than a clean failure message.
type Validator interface {
	// Description returns a short human-readable identity for reports.
	Description() string
	// Evaluate runs the check and returns its outcome. Evaluation of one
	// validator never affects the others.
	Evaluate(ctx context.Context, target Target) Outcome
}
