package state

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("throttled"), false},
		{"entity not found code", errors.New("An error occurred (EntityNotFoundException) when calling GetJob"), true},
		{"resource not found code", errors.New("ResourceNotFoundException: no such trigger"), true},
		{"typed not found", &NotFoundError{Operation: "glue.get-job", Err: errors.New("gone")}, true},
		{"wrapped typed not found", fmt.Errorf("call: %w", &NotFoundError{Operation: "glue.get-job", Err: errors.New("gone")}), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, IsNotFound(test.err))
		})
	}
}

func TestFuncAccessor(t *testing.T) {
	acc := Func(func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
		require.Equal(t, "glue.get-job", operation)
		return map[string]interface{}{"Job": map[string]interface{}{"Name": params["job-name"]}}, nil
	})

	result, err := acc.Call(context.Background(), "glue.get-job", map[string]interface{}{"job-name": "mcp-test-job-basic"})
	require.NoError(t, err)
	job, ok := result["Job"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "mcp-test-job-basic", job["Name"])
}

func TestSplitOperation(t *testing.T) {
	service, command, err := splitOperation("glue.get-job")
	require.NoError(t, err)
	assert.Equal(t, "glue", service)
	assert.Equal(t, "get-job", command)

	_, _, err = splitOperation("get-job")
	assert.Error(t, err)

	_, _, err = splitOperation("glue.")
	assert.Error(t, err)
}

func TestParamsToFlags(t *testing.T) {
	args, err := paramsToFlags(map[string]interface{}{
		"job_name":    "mcp-test-job-basic",
		"dry_run":     true,
		"max_results": 5,
		"job_run_ids": []interface{}{"run-1", "run-2"},
	})
	require.NoError(t, err)

	// Keys render in sorted order so command lines are reproducible.
	assert.Equal(t, []string{
		"--dry-run",
		"--job-name", "mcp-test-job-basic",
		"--job-run-ids", `["run-1","run-2"]`,
		"--max-results", "5",
	}, args)
}

func TestCLIAccessorRejectsBadOperation(t *testing.T) {
	acc := NewCLIAccessor("", "")
	_, err := acc.Call(context.Background(), "not-an-operation", nil)
	assert.Error(t, err)
}
