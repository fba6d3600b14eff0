package cleanup

import (
	"context"
	"errors"
	"testing"

	"mcptest/internal/invoke"
	"mcptest/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCleanupDeletes(t *testing.T) {
	var gotOp string
	var gotParams map[string]interface{}
	accessor := state.Func(func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
		gotOp = operation
		gotParams = params
		return map[string]interface{}{}, nil
	})

	c := NewStateCleanup("glue.delete-job", map[string]interface{}{"job-name": "mcp-test-job-basic"})

	err := c.Apply(context.Background(), Target{State: accessor})
	require.NoError(t, err)
	assert.Equal(t, "glue.delete-job", gotOp)
	assert.Equal(t, "mcp-test-job-basic", gotParams["job-name"])
}

func TestStateCleanupAlreadyDeletedIsNotAFault(t *testing.T) {
	accessor := state.Func(func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
		return nil, errors.New("EntityNotFoundException: already gone")
	})

	c := NewStateCleanup("glue.delete-job", map[string]interface{}{"job-name": "x"})

	assert.NoError(t, c.Apply(context.Background(), Target{State: accessor}))
}

func TestStateCleanupReportsAccessorFault(t *testing.T) {
	accessor := state.Func(func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
		return nil, errors.New("ThrottlingException")
	})

	c := NewStateCleanup("glue.delete-job", map[string]interface{}{"job-name": "x"})

	err := c.Apply(context.Background(), Target{State: accessor})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glue.delete-job")
}

func TestStateCleanupExtractsResourceIDFromResponse(t *testing.T) {
	var gotParams map[string]interface{}
	accessor := state.Func(func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
		gotParams = params
		return map[string]interface{}{}, nil
	})

	c := NewStateCleanup("glue.batch-stop-job-run", map[string]interface{}{"job-name": "mcp-test-job"}).
		WithResponseField("job_run_id", "job-run-ids", true)

	target := Target{
		State:    accessor,
		Response: &invoke.Response{Content: []string{`{"job_run_id":"jr-42"}`}},
	}

	require.NoError(t, c.Apply(context.Background(), target))
	assert.Equal(t, []interface{}{"jr-42"}, gotParams["job-run-ids"])
	assert.Equal(t, "mcp-test-job", gotParams["job-name"])
}

func TestStateCleanupMissingResponseFieldStillDeletes(t *testing.T) {
	called := false
	accessor := state.Func(func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
		called = true
		return map[string]interface{}{}, nil
	})

	c := NewStateCleanup("athena.delete-named-query", map[string]interface{}{}).
		WithResponseField("named_query_id", "named-query-id", false)

	// Invocation failed, no response recorded; the delete is attempted anyway.
	require.NoError(t, c.Apply(context.Background(), Target{State: accessor}))
	assert.True(t, called)
}

func TestStateCleanupInjectsDependencyParams(t *testing.T) {
	var gotParams map[string]interface{}
	accessor := state.Func(func(ctx context.Context, operation string, params map[string]interface{}) (map[string]interface{}, error) {
		gotParams = params
		return map[string]interface{}{}, nil
	})

	c := NewStateCleanup("s3.delete-object", map[string]interface{}{
		"bucket": "{{create_bucket.Name}}",
		"key":    "scripts/job.py",
	})

	target := Target{
		State: accessor,
		Responses: map[string]interface{}{
			"create_bucket": map[string]interface{}{"Name": "mcp-test-bucket"},
		},
	}

	require.NoError(t, c.Apply(context.Background(), target))
	assert.Equal(t, "mcp-test-bucket", gotParams["bucket"])
}

func TestFuncCleanup(t *testing.T) {
	ran := false
	c := Func{
		Desc: "drop temp table",
		Do: func(ctx context.Context, target Target) error {
			ran = true
			return nil
		},
	}

	assert.Equal(t, "drop temp table", c.Description())
	require.NoError(t, c.Apply(context.Background(), Target{}))
	assert.True(t, ran)

	empty := Func{Desc: "noop"}
	assert.NoError(t, empty.Apply(context.Background(), Target{}))
}
