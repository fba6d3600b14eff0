package invoke

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name     string
		response *Response
		expected string
	}{
		{
			name:     "nil response",
			response: nil,
			expected: "",
		},
		{
			name:     "empty content",
			response: &Response{},
			expected: "",
		},
		{
			name:     "single part",
			response: &Response{Content: []string{"Successfully created Glue job"}},
			expected: "Successfully created Glue job",
		},
		{
			name:     "multiple parts joined with space",
			response: &Response{Content: []string{"part one", "part two"}},
			expected: "part one part two",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.response.Text())
		})
	}
}

func TestFromCallToolResult(t *testing.T) {
	result := &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "Error: job exists"},
		},
	}

	resp := fromCallToolResult(result)
	require.NotNil(t, resp)
	assert.True(t, resp.IsError)
	assert.Equal(t, "Error: job exists", resp.Text())

	assert.Nil(t, fromCallToolResult(nil))
}

func TestFuncInvoker(t *testing.T) {
	var gotTool string
	var gotParams map[string]interface{}

	inv := Func(func(ctx context.Context, tool string, params map[string]interface{}) (*Response, error) {
		gotTool = tool
		gotParams = params
		return &Response{Content: []string{"ok"}}, nil
	})

	resp, err := inv.Invoke(context.Background(), "manage_aws_glue_jobs", map[string]interface{}{"operation": "create-job"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, "manage_aws_glue_jobs", gotTool)
	assert.Equal(t, "create-job", gotParams["operation"])
	assert.NoError(t, inv.Close())
}
