package invoke

import (
	"context"
	"strings"
)

// Response is the recorded outcome of a single tool invocation. It is
// immutable once recorded on a test result; validators only ever read it.
type Response struct {
	// IsError mirrors the MCP result error flag: the call reached the tool
	// but the tool reported a failure.
	IsError bool
	// Content holds the text parts of the tool response in order.
	Content []string
}

// Text returns the stringified response used for substring validation.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Content, " ")
}

// Invoker is the transport to the tool server under test. A test either
// succeeds or fails once per run; retries are never automatic.
type Invoker interface {
	// Invoke calls the named tool with the given params. A non-nil error
	// means the invocation itself failed (transport error, timeout); an
	// error reported by the tool comes back as a Response with IsError set.
	Invoke(ctx context.Context, tool string, params map[string]interface{}) (*Response, error)
	// Close releases the underlying transport.
	Close() error
}

// Func adapts a function to the Invoker interface, mainly for tests.
type Func func(ctx context.Context, tool string, params map[string]interface{}) (*Response, error)

// Invoke implements Invoker.
func (f Func) Invoke(ctx context.Context, tool string, params map[string]interface{}) (*Response, error) {
	return f(ctx, tool, params)
}

// Close implements Invoker.
func (f Func) Close() error { return nil }
