package testcase

import (
	"fmt"

	"mcptest/pkg/logging"
)

// DuplicateNameError reports two registrations under the same case name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("test case %q registered twice", e.Name)
}

// Registry collects test cases and preserves registration order. Order is
// observable downstream: the resolver breaks scheduling ties by it, so two
// runs over the same registry produce the same plan.
type Registry struct {
	cases  []*TestCase
	byName map[string]*TestCase
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*TestCase),
	}
}

// Register adds a case. Names must be unique and non-empty, and every case
// needs a tool to invoke.
func (r *Registry) Register(tc *TestCase) error {
	if tc.Name == "" {
		return fmt.Errorf("test case has no name")
	}
	if tc.Tool == "" {
		return fmt.Errorf("test case %q has no tool", tc.Name)
	}
	if _, exists := r.byName[tc.Name]; exists {
		return &DuplicateNameError{Name: tc.Name}
	}
	r.byName[tc.Name] = tc
	r.cases = append(r.cases, tc)
	logging.Debug("Registry", "registered test case %s (group=%s, deps=%d)", tc.Name, tc.Group, len(tc.Dependencies))
	return nil
}

// RegisterAll registers cases in order, stopping at the first error.
func (r *Registry) RegisterAll(cases []*TestCase) error {
	for _, tc := range cases {
		if err := r.Register(tc); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the case registered under name, or nil.
func (r *Registry) Get(name string) *TestCase {
	return r.byName[name]
}

// Cases returns all cases in registration order. The slice is shared; callers
// must not mutate it.
func (r *Registry) Cases() []*TestCase {
	return r.cases
}

// Len reports the number of registered cases.
func (r *Registry) Len() int {
	return len(r.cases)
}

// Filter returns a new registry holding only cases accepted by keep,
// preserving registration order. Dependencies are not re-checked here; the
// resolver rejects references to cases the filter removed.
func (r *Registry) Filter(keep func(*TestCase) bool) *Registry {
	out := NewRegistry()
	for _, tc := range r.cases {
		if keep(tc) {
			// errors are impossible: names were unique in the source
			_ = out.Register(tc)
		}
	}
	return out
}
