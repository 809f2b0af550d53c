// Package registry holds the server's fixed catalogue of callable tools.
//
// The registry is built once at startup and is read-only afterwards: every
// Register call happens before any transport accepts requests, so Execute
// can look tools up without locking. Execution enforces per-tool timeouts,
// validates arguments against each tool's declarative schema, and feeds
// exactly one outcome per call into the metrics collector.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"
)

// Handler executes a tool with validated arguments. Handlers are expected
// to honor ctx cancellation, but the registry does not depend on that: on
// timeout it stops waiting and reports the timeout regardless.
type Handler func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error)

// Tool is one registered catalogue entry. Immutable once registered.
type Tool struct {
	Name        string
	Description string
	Schema      InputSchema
	Handler     Handler

	// Timeout overrides the registry default when positive.
	Timeout time.Duration

	// Source labels results from this tool in synthesized answers,
	// e.g. "jira", "git", "aoma-kb".
	Source string
}

// Definition is the discovery view of a tool: everything except the handler.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Schema      InputSchema `json:"inputSchema"`
}

// Result is a successful tool execution.
type Result struct {
	Payload interface{}
	Elapsed time.Duration
	Source  string
}

// OutcomeRecorder receives one outcome per Execute call.
type OutcomeRecorder interface {
	RecordOutcome(success bool, elapsed time.Duration)
}

// Registry is the tool catalogue. Register everything during startup, then
// share the instance freely: Execute performs no writes to the tool map.
type Registry struct {
	tools          map[string]*Tool
	order          []string // registration order, for stable listings
	defaultTimeout time.Duration
	recorder       OutcomeRecorder
}

// New creates an empty registry. defaultTimeout applies to tools that do
// not declare their own.
func New(defaultTimeout time.Duration, recorder OutcomeRecorder) *Registry {
	return &Registry{
		tools:          make(map[string]*Tool),
		defaultTimeout: defaultTimeout,
		recorder:       recorder,
	}
}

// Register adds a tool to the catalogue. Names must be unique; on conflict
// the first registration wins and a DuplicateToolError is returned.
func (r *Registry) Register(tool Tool) error {
	if _, exists := r.tools[tool.Name]; exists {
		return &DuplicateToolError{Name: tool.Name}
	}
	t := tool
	r.tools[tool.Name] = &t
	r.order = append(r.order, tool.Name)
	logging.Debug("Registry", "Registered tool %s", tool.Name)
	return nil
}

// Get returns the tool with the given name, or nil when unknown.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Definitions lists every tool's discovery view in registration order.
// Handlers are never exposed.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		defs = append(defs, Definition{
			Name:        tool.Name,
			Description: tool.Description,
			Schema:      tool.Schema,
		})
	}
	return defs
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

type handlerOutcome struct {
	payload interface{}
	err     error
}

// Execute runs the named tool against raw arguments.
//
// The call fails with UnknownToolError before any validation, with
// ValidationError when arguments break the tool's schema, with TimeoutError
// when the handler outlives its deadline, and with ToolExecutionError when
// the handler itself returns an error. Every path, success or failure,
// records exactly one outcome with the metrics collector.
//
// On timeout the registry abandons the handler: the goroutine may keep
// running until it notices ctx cancellation, so tool side effects are
// at-most-once-attempted, never guaranteed-cancelled.
func (r *Registry) Execute(ctx context.Context, name string, raw map[string]interface{}, ec *ExecutionContext) (*Result, error) {
	start := time.Now()

	tool := r.tools[name]
	if tool == nil {
		r.recorder.RecordOutcome(false, time.Since(start))
		return nil, &UnknownToolError{Name: name}
	}

	args, err := tool.Schema.Validate(name, raw)
	if err != nil {
		r.recorder.RecordOutcome(false, time.Since(start))
		return nil, err
	}

	timeout := tool.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so an abandoned handler can still deliver and exit.
	done := make(chan handlerOutcome, 1)
	go func() {
		payload, handlerErr := tool.Handler(execCtx, args, ec)
		done <- handlerOutcome{payload: payload, err: handlerErr}
	}()

	select {
	case outcome := <-done:
		elapsed := time.Since(start)
		if outcome.err != nil {
			r.recorder.RecordOutcome(false, elapsed)
			logging.Error("Registry", outcome.err, "Tool %s failed (request %s)", name, ec.RequestID)
			return nil, &ToolExecutionError{Tool: name, Cause: outcome.err}
		}
		r.recorder.RecordOutcome(true, elapsed)
		return &Result{Payload: outcome.payload, Elapsed: elapsed, Source: tool.Source}, nil

	case <-execCtx.Done():
		elapsed := time.Since(start)
		r.recorder.RecordOutcome(false, elapsed)
		if errors.Is(execCtx.Err(), context.Canceled) {
			// The caller went away; not the tool's fault.
			return nil, &ToolExecutionError{Tool: name, Cause: execCtx.Err()}
		}
		logging.Warn("Registry", "Tool %s timed out after %s (request %s)", name, timeout, ec.RequestID)
		return nil, &TimeoutError{Tool: name, Timeout: timeout.String()}
	}
}
