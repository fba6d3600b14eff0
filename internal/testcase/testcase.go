// Package testcase defines the declarative test case model and the
// registration surface of the engine. A TestCase is immutable once
// registered; the executor only ever reads it.
package testcase

import (
	"context"
	"time"

	"mcptest/internal/cleanup"
	"mcptest/internal/validate"
)

// SetupFunc is a side-effecting action run once before a test's invocation,
// typically provisioning a prerequisite resource (upload a script, create a
// bucket). An error short-circuits the test to cleanup.
type SetupFunc func(ctx context.Context) error

// TestCase describes one tool invocation under test together with its
// validators, dependencies and teardown.
type TestCase struct {
	// Name uniquely identifies the case within a registered set.
	Name string
	// Tool is the remote operation to invoke on the tool server.
	Tool string
	// Params are the invocation params. String values may carry
	// {{dependency.path}} placeholders resolved before invocation.
	Params map[string]interface{}
	// Group assigns the case to a concurrency partition. Cases in
	// different groups may run in parallel; within a group execution is
	// strictly sequential.
	Group string
	// Dependencies names cases that must complete successfully first.
	Dependencies []string
	// Validators are evaluated in order against the recorded response;
	// order matters only for reporting, every validator always runs.
	Validators []validate.Validator
	// Setup actions run in order before invocation.
	Setup []SetupFunc
	// Cleanups run in order after validation regardless of outcome.
	Cleanups []cleanup.Cleanup
	// Timeout bounds this case's invocation; zero means the run default.
	Timeout time.Duration
}
