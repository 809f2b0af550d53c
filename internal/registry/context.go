package registry

import "github.com/google/uuid"

// ExecutionContext carries per-call metadata into a tool handler. Each call
// gets its own instance; it is never shared across concurrent calls.
type ExecutionContext struct {
	RequestID string
	Transport string // "stdio", "http", "agent"
	Method    string // originating protocol method, e.g. "tools/call"
}

// NewExecutionContext creates a context with a fresh request ID.
func NewExecutionContext(transport, method string) *ExecutionContext {
	return &ExecutionContext{
		RequestID: uuid.NewString(),
		Transport: transport,
		Method:    method,
	}
}
