// Package executor runs a resolved execution plan against a tool server:
// groups in parallel, cases within a group in sequence, each case stepping
// through setup, invocation, validation and cleanup.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mcptest/internal/cleanup"
	"mcptest/internal/invoke"
	"mcptest/internal/plan"
	"mcptest/internal/state"
	"mcptest/internal/template"
	"mcptest/internal/testcase"
	"mcptest/internal/validate"
	"mcptest/pkg/logging"
)

const (
	defaultCaseTimeout    = 5 * time.Minute
	defaultDependencyWait = 10 * time.Minute
	defaultCleanupTimeout = 2 * time.Minute
)

// Config wires an executor.
type Config struct {
	// Invoker carries tool invocations to the server under test.
	Invoker invoke.Invoker
	// State answers validator and cleanup queries against the backing system.
	State state.Accessor
	// Globals are merged under dependency responses for placeholder injection.
	Globals map[string]interface{}
	// DefaultTimeout bounds one case's invocation when the case sets none.
	DefaultTimeout time.Duration
	// DependencyWaitTimeout bounds how long a case waits for dependencies in
	// other groups. On expiry the case is skipped, never errored.
	DependencyWaitTimeout time.Duration
	// FailFast cancels the run after the first failed or errored case.
	// Cases already in flight finish normally, including their cleanups.
	FailFast bool
	// Sequential runs the whole plan on a single worker in topological
	// order instead of one worker per group.
	Sequential bool
	// OnResult, if set, is called from the finishing goroutine as each case
	// reaches a terminal state.
	OnResult func(*TestResult)
}

// Executor drives test cases to terminal states. One executor serves one run.
type Executor struct {
	cfg    Config
	engine *template.Engine

	mu        sync.Mutex
	results   map[string]*TestResult
	responses map[string]interface{}
	done      map[string]chan struct{}
	cancelRun context.CancelFunc
}

// New creates an executor for one run.
func New(cfg Config) *Executor {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultCaseTimeout
	}
	if cfg.DependencyWaitTimeout <= 0 {
		cfg.DependencyWaitTimeout = defaultDependencyWait
	}
	return &Executor{
		cfg:       cfg,
		engine:    template.New(),
		results:   make(map[string]*TestResult),
		responses: make(map[string]interface{}),
		done:      make(map[string]chan struct{}),
	}
}

// Run executes the plan and aggregates results. Groups run concurrently,
// each on its own goroutine; a case whose dependency lives in another group
// waits for that dependency's terminal state before starting. The returned
// summary lists results in plan order regardless of completion order.
func (e *Executor) Run(ctx context.Context, p *plan.ExecutionPlan) (*RunSummary, error) {
	start := time.Now()

	for _, tc := range p.Ordered {
		e.done[tc.Name] = make(chan struct{})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.cancelRun = cancel

	logging.Info("Executor", "starting run: %d cases in %d groups", p.Len(), len(p.Groups))

	var eg errgroup.Group
	if e.cfg.Sequential {
		eg.Go(func() error {
			for _, tc := range p.Ordered {
				e.ExecuteOne(runCtx, p, tc)
			}
			return nil
		})
	} else {
		for _, group := range p.Groups {
			g := group
			eg.Go(func() error {
				for _, tc := range g.Cases {
					e.ExecuteOne(runCtx, p, tc)
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:     uuid.New().String(),
		StartTime: start,
		EndTime:   time.Now(),
		Total:     p.Len(),
	}
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	for _, tc := range p.Ordered {
		result := e.resultOf(tc.Name)
		summary.Results = append(summary.Results, result)
		switch result.Status {
		case StatusPassed:
			summary.Passed++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		case StatusError:
			summary.Errored++
		}
	}
	logging.Info("Executor", "run finished: %d passed, %d failed, %d skipped, %d errored",
		summary.Passed, summary.Failed, summary.Skipped, summary.Errored)
	return summary, nil
}

// ExecuteOne drives a single case to a terminal state and records the result.
// Skip decisions happen before any side effect: a skipped case performs no
// setup, no invocation and no cleanup.
func (e *Executor) ExecuteOne(ctx context.Context, p *plan.ExecutionPlan, tc *testcase.TestCase) *TestResult {
	result := &TestResult{
		Name:      tc.Name,
		Group:     tc.Group,
		StartTime: time.Now(),
	}
	defer e.finish(result)

	if reason := e.awaitDependencies(ctx, p, tc); reason != "" {
		result.Status = StatusSkipped
		result.Error = reason
		return result
	}
	for _, dep := range tc.Dependencies {
		if depResult := e.resultOf(dep); depResult == nil || depResult.Status != StatusPassed {
			result.Status = StatusSkipped
			result.Error = fmt.Sprintf("dependency %q did not pass", dep)
			return result
		}
	}

	// From here on the case owns its steps: a run cancellation no longer
	// interrupts them, so partially created state always reaches cleanup.
	caseCtx := context.WithoutCancel(ctx)
	timeout := tc.Timeout
	if timeout <= 0 {
		timeout = e.cfg.DefaultTimeout
	}

	injected := e.runSteps(caseCtx, tc, timeout, result)
	e.runCleanups(caseCtx, tc, injected, result)
	return result
}

// runSteps performs setup, injection, invocation and validation, setting the
// result status. It returns the injected params for cleanup to reuse.
func (e *Executor) runSteps(caseCtx context.Context, tc *testcase.TestCase, timeout time.Duration, result *TestResult) map[string]interface{} {
	stepCtx, cancelStep := context.WithTimeout(caseCtx, timeout)
	defer cancelStep()

	for _, setup := range tc.Setup {
		if err := setup(stepCtx); err != nil {
			result.Status = StatusError
			result.Error = fmt.Sprintf("setup failed: %v", err)
			return tc.Params
		}
	}

	injectionCtx := e.injectionContext()
	injected, err := e.engine.Replace(tc.Params, injectionCtx)
	if err != nil {
		result.Status = StatusError
		result.Error = fmt.Sprintf("param injection failed: %v", err)
		return tc.Params
	}
	injectedParams, _ := injected.(map[string]interface{})

	logging.Debug("Executor", "invoking %s for case %s", tc.Tool, tc.Name)
	resp, err := e.cfg.Invoker.Invoke(stepCtx, tc.Tool, injectedParams)
	if err != nil {
		result.Status = StatusError
		result.Error = fmt.Sprintf("invocation failed: %v", err)
		return injectedParams
	}
	result.Response = resp
	e.recordResponse(tc.Name, resp)

	target := validate.Target{
		Response:  resp,
		Params:    injectedParams,
		State:     e.cfg.State,
		Responses: e.injectionContext(),
	}
	passed := true
	for _, v := range tc.Validators {
		outcome := e.evaluate(stepCtx, v, target)
		result.Outcomes = append(result.Outcomes, outcome)
		if !outcome.Passed {
			passed = false
		}
	}
	switch {
	case !passed:
		result.Status = StatusFailed
	case len(tc.Validators) == 0 && resp.IsError:
		result.Status = StatusFailed
		result.Error = "tool returned an error response"
	default:
		result.Status = StatusPassed
	}
	return injectedParams
}

// evaluate runs one validator, converting a panic into a failed outcome so a
// broken validator cannot take down the run or mask other validators.
func (e *Executor) evaluate(ctx context.Context, v validate.Validator, target validate.Target) (outcome validate.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = validate.Outcome{
				Description: v.Description(),
				Passed:      false,
				Message:     fmt.Sprintf("validator panicked: %v", r),
			}
		}
	}()
	return v.Evaluate(ctx, target)
}

// runCleanups applies every cleanup in order, collecting faults without ever
// changing the test's status.
func (e *Executor) runCleanups(caseCtx context.Context, tc *testcase.TestCase, injected map[string]interface{}, result *TestResult) {
	if len(tc.Cleanups) == 0 {
		return
	}
	target := cleanup.Target{
		Response:  result.Response,
		Params:    injected,
		State:     e.cfg.State,
		Responses: e.injectionContext(),
	}
	for _, c := range tc.Cleanups {
		if err := e.apply(caseCtx, c, target); err != nil {
			logging.Warn("Cleanup", "case %s: %s: %v", tc.Name, c.Description(), err)
			result.CleanupFaults = append(result.CleanupFaults, CleanupFault{
				Description: c.Description(),
				Error:       err.Error(),
			})
		}
	}
}

func (e *Executor) apply(caseCtx context.Context, c cleanup.Cleanup, target cleanup.Target) (err error) {
	ctx, cancel := context.WithTimeout(caseCtx, defaultCleanupTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup panicked: %v", r)
		}
	}()
	return c.Apply(ctx, target)
}

// awaitDependencies blocks until every cross-group dependency reaches a
// terminal state. In-group dependencies need no wait: the plan orders them
// earlier in the same sequential group. A non-empty return is a skip reason.
func (e *Executor) awaitDependencies(ctx context.Context, p *plan.ExecutionPlan, tc *testcase.TestCase) string {
	cross := p.CrossGroupDependencies(tc)
	if len(cross) > 0 {
		timer := time.NewTimer(e.cfg.DependencyWaitTimeout)
		defer timer.Stop()
		for _, dep := range cross {
			// ExecuteOne called outside Run has no channels; the status
			// check on the recorded result still guards the dependency.
			ch, ok := e.done[dep]
			if !ok {
				continue
			}
			select {
			case <-ch:
			case <-timer.C:
				return fmt.Sprintf("timed out waiting for dependency %q", dep)
			case <-ctx.Done():
				return "run canceled"
			}
		}
	}
	// a closed done channel and a canceled context race in the select
	// above, so the cancellation check must come last
	if ctx.Err() != nil {
		return "run canceled"
	}
	return ""
}

// finish stamps the result, records it, unblocks waiters and triggers
// fail-fast cancellation if configured.
func (e *Executor) finish(result *TestResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	e.mu.Lock()
	e.results[result.Name] = result
	e.mu.Unlock()
	if ch, ok := e.done[result.Name]; ok {
		close(ch)
	}

	logging.Debug("Executor", "case %s finished: %s", result.Name, result.Status)
	if e.cfg.OnResult != nil {
		e.cfg.OnResult(result)
	}
	if e.cfg.FailFast && (result.Status == StatusFailed || result.Status == StatusError) && e.cancelRun != nil {
		logging.Info("Executor", "fail-fast triggered by case %s", result.Name)
		e.cancelRun()
	}
}

func (e *Executor) resultOf(name string) *TestResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results[name]
}

// recordResponse stores a case's response for placeholder injection by its
// dependents. JSON payloads are decoded so dot paths can walk them; anything
// else is kept as the raw text.
func (e *Executor) recordResponse(name string, resp *invoke.Response) {
	var value interface{} = resp.Text()
	trimmed := strings.TrimSpace(resp.Text())
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var decoded interface{}
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			value = decoded
		}
	}
	e.mu.Lock()
	e.responses[name] = value
	e.mu.Unlock()
}

// injectionContext snapshots globals plus recorded responses, responses
// winning on key conflict.
func (e *Executor) injectionContext() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return template.MergeContexts(e.cfg.Globals, e.responses)
}
