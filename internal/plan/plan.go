// Package plan resolves registered test cases into a deterministic
// execution plan: a topological order over the dependency graph, partitioned
// into groups for concurrent execution.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"mcptest/internal/testcase"
	"mcptest/pkg/logging"
)

// UnknownDependencyError reports a dependency on a case that is not part of
// the resolved set, either never registered or removed by filtering.
type UnknownDependencyError struct {
	Case       string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("test case %q depends on unknown case %q", e.Case, e.Dependency)
}

// CycleError reports a dependency cycle. Members lists every case involved
// in (or downstream of) a cycle, sorted by name.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving: %s", strings.Join(e.Members, ", "))
}

// Group is one concurrency partition. Cases run strictly sequentially within
// a group, in the order listed.
type Group struct {
	Name  string
	Cases []*testcase.TestCase
}

// ExecutionPlan is the resolved schedule for a run.
type ExecutionPlan struct {
	// Ordered is the full topological order, used for sequential runs and
	// reporting.
	Ordered []*testcase.TestCase
	// Groups partitions Ordered by test group, each keeping its slice of
	// the topological order. Group order follows first appearance in
	// registration order.
	Groups []Group

	groupOf map[string]string
}

// Len reports the number of planned cases.
func (p *ExecutionPlan) Len() int {
	return len(p.Ordered)
}

// Resolve validates the dependency graph over the registry's cases and
// produces an execution plan. The order is deterministic: among cases whose
// dependencies are all satisfied, the earliest-registered runs first. Resolve
// fails before any execution on an unknown dependency or a cycle.
func Resolve(registry *testcase.Registry) (*ExecutionPlan, error) {
	cases := registry.Cases()

	indegree := make(map[string]int, len(cases))
	for _, tc := range cases {
		for _, dep := range tc.Dependencies {
			if registry.Get(dep) == nil {
				return nil, &UnknownDependencyError{Case: tc.Name, Dependency: dep}
			}
			indegree[tc.Name]++
		}
	}

	// Kahn's algorithm with registration order as the tie-break. The scan
	// restarts from the front each round so an earlier-registered case that
	// becomes ready is always picked before a later one.
	done := make(map[string]bool, len(cases))
	ordered := make([]*testcase.TestCase, 0, len(cases))
	for len(ordered) < len(cases) {
		progressed := false
		for _, tc := range cases {
			if done[tc.Name] || indegree[tc.Name] > 0 {
				continue
			}
			done[tc.Name] = true
			ordered = append(ordered, tc)
			for _, other := range cases {
				if done[other.Name] {
					continue
				}
				for _, dep := range other.Dependencies {
					if dep == tc.Name {
						indegree[other.Name]--
					}
				}
			}
			progressed = true
			break
		}
		if !progressed {
			var members []string
			for _, tc := range cases {
				if !done[tc.Name] {
					members = append(members, tc.Name)
				}
			}
			sort.Strings(members)
			return nil, &CycleError{Members: members}
		}
	}

	groupOf := make(map[string]string, len(ordered))
	for _, tc := range ordered {
		groupOf[tc.Name] = tc.Group
	}
	p := &ExecutionPlan{
		Ordered: ordered,
		Groups:  partition(ordered, cases),
		groupOf: groupOf,
	}
	logging.Debug("Resolver", "resolved %d cases into %d groups", len(p.Ordered), len(p.Groups))
	return p, nil
}

// partition splits the topological order by group, with groups appearing in
// the order their first case was registered.
func partition(ordered, registered []*testcase.TestCase) []Group {
	byName := make(map[string]int)
	var groups []Group
	for _, tc := range registered {
		if _, seen := byName[tc.Group]; !seen {
			byName[tc.Group] = len(groups)
			groups = append(groups, Group{Name: tc.Group})
		}
	}
	for _, tc := range ordered {
		i := byName[tc.Group]
		groups[i].Cases = append(groups[i].Cases, tc)
	}
	return groups
}

// CrossGroupDependencies returns, per case, the dependencies that live in a
// different group. These are the serialization points between otherwise
// parallel groups; the executor waits on them before running the case.
func (p *ExecutionPlan) CrossGroupDependencies(tc *testcase.TestCase) []string {
	var cross []string
	for _, dep := range tc.Dependencies {
		if p.groupOf[dep] != tc.Group {
			cross = append(cross, dep)
		}
	}
	return cross
}
