package invoke

import (
	"context"
	"fmt"
	"time"

	"mcptest/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	initializeTimeout  = 30 * time.Second
	defaultCallTimeout = 120 * time.Second
)

// MCPInvoker invokes tools on an MCP server, either launched as a child
// process (stdio transport) or reached over streamable HTTP.
type MCPInvoker struct {
	client      client.MCPClient
	endpoint    string
	callTimeout time.Duration
}

// MCPOption configures an MCPInvoker.
type MCPOption func(*MCPInvoker)

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) MCPOption {
	return func(i *MCPInvoker) {
		i.callTimeout = d
	}
}

// NewStdioInvoker launches the tool server as a child process and speaks MCP
// over its stdio, the way a local server binary is tested.
func NewStdioInvoker(ctx context.Context, command string, env []string, args []string, opts ...MCPOption) (*MCPInvoker, error) {
	stdioClient, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start stdio MCP client: %w", err)
	}

	inv := &MCPInvoker{
		client:      stdioClient,
		endpoint:    command,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(inv)
	}

	if err := inv.initialize(ctx); err != nil {
		stdioClient.Close()
		return nil, err
	}
	return inv, nil
}

// NewHTTPInvoker connects to an already running tool server over streamable
// HTTP at the given endpoint.
func NewHTTPInvoker(ctx context.Context, endpoint string, opts ...MCPOption) (*MCPInvoker, error) {
	httpClient, err := client.NewStreamableHttpClient(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create streamable HTTP client: %w", err)
	}

	if err := httpClient.Start(ctx); err != nil {
		httpClient.Close()
		return nil, fmt.Errorf("failed to start streamable HTTP client: %w", err)
	}

	inv := &MCPInvoker{
		client:      httpClient,
		endpoint:    endpoint,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(inv)
	}

	if err := inv.initialize(ctx); err != nil {
		httpClient.Close()
		return nil, err
	}
	return inv, nil
}

func (i *MCPInvoker) initialize(ctx context.Context) error {
	initRequest := mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "mcptest-client",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	if _, err := i.client.Initialize(initCtx, initRequest); err != nil {
		return fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	logging.Debug("Invoker", "connected to tool server at %s", i.endpoint)
	return nil
}

// Invoke implements Invoker.
func (i *MCPInvoker) Invoke(ctx context.Context, tool string, params map[string]interface{}) (*Response, error) {
	if i.client == nil {
		return nil, fmt.Errorf("MCP client not connected")
	}

	callCtx, cancel := context.WithTimeout(ctx, i.callTimeout)
	defer cancel()

	request := mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Name:      tool,
			Arguments: params,
		},
	}

	result, err := i.client.CallTool(callCtx, request)
	if err != nil {
		logging.Debug("Invoker", "tool call %s failed: %v", tool, err)
		return nil, fmt.Errorf("tool call %s failed: %w", tool, err)
	}

	return fromCallToolResult(result), nil
}

// ListTools returns the names of the tools the server advertises.
func (i *MCPInvoker) ListTools(ctx context.Context) ([]string, error) {
	if i.client == nil {
		return nil, fmt.Errorf("MCP client not connected")
	}

	listCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	result, err := i.client.ListTools(listCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	var toolNames []string
	for _, tool := range result.Tools {
		toolNames = append(toolNames, tool.Name)
	}
	return toolNames, nil
}

// Close implements Invoker.
func (i *MCPInvoker) Close() error {
	if i.client == nil {
		return nil
	}
	err := i.client.Close()
	i.client = nil
	return err
}

// fromCallToolResult flattens an MCP result into the recorded Response shape.
func fromCallToolResult(result *mcp.CallToolResult) *Response {
	if result == nil {
		return nil
	}
	resp := &Response{IsError: result.IsError}
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			resp.Content = append(resp.Content, textContent.Text)
		}
	}
	return resp
}
