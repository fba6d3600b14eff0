package validate

import (
	"context"
	"fmt"
	"strings"

	"mcptest/internal/state"
	"mcptest/internal/template"
)

// StateValidator asserts on live external-system state: it calls the
// configured accessor operation and checks that every expected dot-separated
// key path resolves to a present value. With ExpectAbsent set the assertion
// inverts: the resource must be gone, and the accessor's not-found error
// counts as success.
type StateValidator struct {
	// Operation is the accessor operation, e.g. "glue.get-job".
	Operation string
	// Params are the operation params. String values may carry
	// {{dependency.path}} placeholders resolved from dependency responses.
	Params map[string]interface{}
	// ExpectedKeys are dot-separated paths into the accessor result that
	// must all resolve, e.g. "Job.Command.ScriptLocation".
	ExpectedKeys []string
	// ExpectAbsent inverts the check: the operation must fail not-found.
	ExpectAbsent bool

	engine *template.Engine
}

// NewStateValidator returns a state validator for the given operation.
func NewStateValidator(operation string, params map[string]interface{}, expectedKeys []string) *StateValidator {
	return &StateValidator{
		Operation:    operation,
		Params:       params,
		ExpectedKeys: expectedKeys,
		engine:       template.New(),
	}
}

// NewAbsenceValidator returns a state validator asserting the resource no
// longer exists.
func NewAbsenceValidator(operation string, params map[string]interface{}) *StateValidator {
	return &StateValidator{
		Operation:    operation,
		Params:       params,
		ExpectAbsent: true,
		engine:       template.New(),
	}
}

// Description implements Validator.
func (v *StateValidator) Description() string {
	if v.ExpectAbsent {
		return fmt.Sprintf("state %s reports resource absent", v.Operation)
	}
	return fmt.Sprintf("state %s has keys [%s]", v.Operation, strings.Join(v.ExpectedKeys, ", "))
}

// Evaluate implements Validator.
func (v *StateValidator) Evaluate(ctx context.Context, target Target) Outcome {
	outcome := Outcome{Description: v.Description()}

	if target.State == nil {
		outcome.Message = "no state accessor configured"
		return outcome
	}

	params, err := v.resolveParams(target)
	if err != nil {
		outcome.Message = fmt.Sprintf("failed to inject params: %v", err)
		return outcome
	}

	result, err := target.State.Call(ctx, v.Operation, params)
	if err != nil {
		if v.ExpectAbsent && state.IsNotFound(err) {
			outcome.Passed = true
			outcome.Message = "resource correctly not found"
			return outcome
		}
		outcome.Message = fmt.Sprintf("accessor error on %s: %v", v.Operation, err)
		return outcome
	}

	if v.ExpectAbsent {
		outcome.Message = fmt.Sprintf("expected resource to not exist, but %s succeeded", v.Operation)
		return outcome
	}

	for _, keyPath := range v.ExpectedKeys {
		if _, ok := lookupPath(result, keyPath); !ok {
			outcome.Message = fmt.Sprintf("missing key path %q in %s result", keyPath, v.Operation)
			return outcome
		}
	}

	outcome.Passed = true
	outcome.Message = fmt.Sprintf("validation successful for operation %s", v.Operation)
	return outcome
}

func (v *StateValidator) resolveParams(target Target) (map[string]interface{}, error) {
	if v.Params == nil {
		return nil, nil
	}
	engine := v.engine
	if engine == nil {
		engine = template.New()
	}
	resolved, err := engine.Replace(v.Params, target.Responses)
	if err != nil {
		return nil, err
	}
	resolvedMap, ok := resolved.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("param injection returned unexpected type %T", resolved)
	}
	return resolvedMap, nil
}

// lookupPath walks a dot-separated key path through nested maps. Keys match
// exactly, including case; a nil value counts as missing.
func lookupPath(data map[string]interface{}, keyPath string) (interface{}, bool) {
	var value interface{} = data
	for _, key := range strings.Split(keyPath, ".") {
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		next, exists := m[key]
		if !exists {
			return nil, false
		}
		value = next
	}
	if value == nil {
		return nil, false
	}
	return value, true
}
