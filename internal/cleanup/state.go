package cleanup

import (
	"context"
	"encoding/json"
	"fmt"

	"mcptest/internal/invoke"
	"mcptest/internal/state"
	"mcptest/internal/template"
	"mcptest/pkg/logging"
)

// StateCleanup deletes a resource through the external-state accessor. The
// delete params are fixed at construction, optionally completed with a
// resource identifier extracted from the test's own recorded response (for
// server-generated IDs such as query execution IDs or job run IDs).
type StateCleanup struct {
	// Operation is the delete-style accessor operation, e.g. "glue.delete-job".
	Operation string
	// Params are the operation params. String values may carry
	// {{dependency.path}} placeholders.
	Params map[string]interface{}
	// ResourceField, when set, names a field in the response JSON whose
	// value is copied into Params under TargetParam before the call.
	ResourceField string
	TargetParam   string
	// ParamIsList wraps the extracted identifier in a single-element list.
	ParamIsList bool

	engine *template.Engine
}

// NewStateCleanup returns a cleanup that calls the given delete operation.
func NewStateCleanup(operation string, params map[string]interface{}) *StateCleanup {
	return &StateCleanup{
		Operation: operation,
		Params:    params,
		engine:    template.New(),
	}
}

// WithResponseField configures extraction of a server-generated identifier
// from the recorded response into the delete params.
func (c *StateCleanup) WithResponseField(responseField, targetParam string, asList bool) *StateCleanup {
	c.ResourceField = responseField
	c.TargetParam = targetParam
	c.ParamIsList = asList
	return c
}

// Description implements Cleanup.
func (c *StateCleanup) Description() string {
	return fmt.Sprintf("state %s", c.Operation)
}

// Apply implements Cleanup.
func (c *StateCleanup) Apply(ctx context.Context, target Target) error {
	if target.State == nil {
		return fmt.Errorf("no state accessor configured")
	}

	params, err := c.resolveParams(target)
	if err != nil {
		return fmt.Errorf("failed to resolve delete params: %w", err)
	}

	if c.ResourceField != "" && c.TargetParam != "" {
		id, err := extractResourceID(target.Response, c.ResourceField)
		if err != nil {
			// The response may legitimately lack the field when the
			// invocation failed before creating anything.
			logging.Warn("Cleanup", "could not extract %s for %s: %v", c.ResourceField, c.Operation, err)
		} else if c.ParamIsList {
			params[c.TargetParam] = []interface{}{id}
		} else {
			params[c.TargetParam] = id
		}
	}

	if _, err := target.State.Call(ctx, c.Operation, params); err != nil {
		if state.IsNotFound(err) {
			logging.Debug("Cleanup", "%s: resource already gone", c.Operation)
			return nil
		}
		return fmt.Errorf("%s failed: %w", c.Operation, err)
	}
	return nil
}

func (c *StateCleanup) resolveParams(target Target) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(c.Params))
	for k, v := range c.Params {
		params[k] = v
	}
	if len(params) == 0 {
		return params, nil
	}
	engine := c.engine
	if engine == nil {
		engine = template.New()
	}
	resolved, err := engine.Replace(params, target.Responses)
	if err != nil {
		return nil, err
	}
	resolvedMap, ok := resolved.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("param injection returned unexpected type %T", resolved)
	}
	return resolvedMap, nil
}

// extractResourceID pulls a server-generated identifier out of the recorded
// response: the first text content is decoded as JSON and the named field
// looked up.
func extractResourceID(response *invoke.Response, field string) (interface{}, error) {
	if response == nil || len(response.Content) == 0 {
		return nil, fmt.Errorf("no response content")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(response.Content[0]), &parsed); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	id, exists := parsed[field]
	if !exists || id == nil {
		return nil, fmt.Errorf("field %q not present in response", field)
	}
	return id, nil
}
