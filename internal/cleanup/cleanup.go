// Package cleanup defines best-effort teardown actions run after a test case
// regardless of its outcome. Cleanup faults are logged and collected but never
// change a test's result and never abort remaining cleanups.
package cleanup

import (
	"context"

	"mcptest/internal/invoke"
	"mcptest/internal/state"
)

// Target is what a cleanup action may read: the test's recorded response (nil
// when invocation failed), its params, the external-state accessor, and
// dependency responses for placeholder injection.
type Target struct {
	Response  *invoke.Response
	Params    map[string]interface{}
	State     state.Accessor
	Responses map[string]interface{}
}

// Cleanup tears down a resource the test created. Apply is best-effort and
// should be idempotent: deleting an already-deleted resource is not a fault.
type Cleanup interface {
	// Description identifies the action for fault logging.
	Description() string
	// Apply performs the teardown. A returned error is recorded as a
	// cleanup fault, never escalated.
	Apply(ctx context.Context, target Target) error
}

// Func adapts a function to the Cleanup interface for ad hoc teardown.
type Func struct {
	Desc string
	Do   func(ctx context.Context, target Target) error
}

// Description implements Cleanup.
func (f Func) Description() string { return f.Desc }

// Apply implements Cleanup.
func (f Func) Apply(ctx context.Context, target Target) error {
	if f.Do == nil {
		return nil
	}
	return f.Do(ctx, target)
}
