package registry

import "fmt"

// DuplicateToolError is returned by Register when a tool name is already
// taken. The registry keeps the first registration.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError is returned by Execute when the requested tool name does
// not exist in the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// ValidationError reports caller-supplied input that fails a tool's schema.
// Field names the offending argument.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q for tool %q: %s", e.Field, e.Tool, e.Reason)
}

// TimeoutError reports a tool handler that exceeded its deadline. The
// registry stops waiting when the deadline passes; the handler may still be
// running and may still complete its side effects.
type TimeoutError struct {
	Tool    string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %q timed out after %s", e.Tool, e.Timeout)
}

// ToolExecutionError wraps an error raised by a tool handler.
type ToolExecutionError struct {
	Tool  string
	Cause error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Cause
}
