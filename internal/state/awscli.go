package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"mcptest/pkg/logging"
)

const defaultCLITimeout = 60 * time.Second

// CLIAccessor implements Accessor by shelling out to the aws CLI, keeping
// credential and region resolution entirely outside the engine. Operations
// use the form "service.command", e.g. "glue.get-job" or "athena.get-work-group".
type CLIAccessor struct {
	// Binary is the aws executable, "aws" by default.
	Binary string
	// Profile and Region are passed through when set.
	Profile string
	Region  string
	// Timeout bounds a single CLI call.
	Timeout time.Duration
}

// NewCLIAccessor returns a CLIAccessor with defaults applied.
func NewCLIAccessor(profile, region string) *CLIAccessor {
	return &CLIAccessor{
		Binary:  "aws",
		Profile: profile,
		Region:  region,
		Timeout: defaultCLITimeout,
	}
}

// Call implements Accessor.
func (a *CLIAccessor) Call(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
	service, command, err := splitOperation(operation)
	if err != nil {
		return nil, err
	}

	args := []string{service, command, "--output", "json"}
	if a.Profile != "" {
		args = append(args, "--profile", a.Profile)
	}
	if a.Region != "" {
		args = append(args, "--region", a.Region)
	}
	flagArgs, err := paramsToFlags(params)
	if err != nil {
		return nil, fmt.Errorf("invalid params for %s: %w", operation, err)
	}
	args = append(args, flagArgs...)

	binary := a.Binary
	if binary == "" {
		binary = "aws"
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaultCLITimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logging.Debug("State", "calling %s %s", binary, strings.Join(args, " "))

	cmd := exec.CommandContext(callCtx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		accessErr := fmt.Errorf("%s failed: %s: %w", operation, strings.TrimSpace(stderr.String()), err)
		if IsNotFound(accessErr) {
			return nil, &NotFoundError{Operation: operation, Err: accessErr}
		}
		return nil, accessErr
	}

	// Delete-style commands often succeed with empty output.
	trimmed := bytes.TrimSpace(stdout.Bytes())
	if len(trimmed) == 0 {
		return map[string]interface{}{}, nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("%s returned invalid JSON: %w", operation, err)
	}
	return result, nil
}

// splitOperation splits "glue.get-job" into service and command.
func splitOperation(operation string) (string, string, error) {
	parts := strings.SplitN(operation, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("operation %q must have the form service.command", operation)
	}
	return parts[0], parts[1], nil
}

// paramsToFlags renders params as CLI flags in a stable order. Scalar values
// pass through as strings; structured values are JSON-encoded the way the CLI
// expects shorthand-incompatible input.
func paramsToFlags(params map[string]interface{}) ([]string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		flag := "--" + strings.ReplaceAll(strings.ReplaceAll(k, "_", "-"), ".", "-")
		switch v := params[k].(type) {
		case string:
			args = append(args, flag, v)
		case bool:
			if v {
				args = append(args, flag)
			}
		case nil:
			args = append(args, flag)
		case float64, int, int64:
			args = append(args, flag, fmt.Sprintf("%v", v))
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", k, err)
			}
			args = append(args, flag, string(encoded))
		}
	}
	return args, nil
}
