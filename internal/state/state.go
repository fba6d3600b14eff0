// Package state defines the external-state accessor used by state validators
// and cleanup actions to inspect and tear down live resources created by the
// tool under test.
package state

import (
	"context"
	"errors"
	"strings"
)

// Accessor reads (and deletes) live external-system state. Implementations
// are opaque to the engine; credential handling stays with the caller.
type Accessor interface {
	// Call performs the named read or delete operation with the given
	// params and returns the decoded structured result.
	Call(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error)
}

// Func adapts a function to the Accessor interface, mainly for tests.
type Func func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error)

// Call implements Accessor.
func (f Func) Call(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
	return f(ctx, operation, params)
}

// notFoundMarkers are the service error codes that mean the resource does not
// exist. Deleting an already-deleted resource surfaces one of these; absence
// validators treat them as success.
var notFoundMarkers = []string{
	"EntityNotFoundException",
	"ResourceNotFoundException",
	"InvalidRequestException",
	"NoSuchEntity",
	"NotFoundException",
	"404",
}

// NotFoundError marks an accessor error as resource-not-found.
type NotFoundError struct {
	Operation string
	Err       error
}

func (e *NotFoundError) Error() string {
	return "resource not found for " + e.Operation + ": " + e.Err.Error()
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// IsNotFound reports whether an accessor error means the resource does not
// exist, either via the NotFoundError type or a known service error code in
// the error text.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	text := err.Error()
	for _, marker := range notFoundMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
