package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echoes its input",
		Source:      "test",
		Schema: InputSchema{
			"message": {Type: "string", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			return args["message"], nil
		},
	}
}

func newTestRegistry(t *testing.T) (*Registry, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector()
	return New(time.Second, collector), collector
}

func TestRegister_DuplicateRejected(t *testing.T) {
	r, _ := newTestRegistry(t)

	first := echoTool("echo")
	first.Description = "the original"
	require.NoError(t, r.Register(first))

	second := echoTool("echo")
	second.Description = "the impostor"
	err := r.Register(second)

	var dup *DuplicateToolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "echo", dup.Name)

	// The first registration is retained.
	defs := r.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "the original", defs[0].Description)
}

func TestDefinitions_NeverExposeHandlers(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Register(echoTool("echo")))
	require.NoError(t, r.Register(echoTool("echo2")))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	// Registration order is preserved.
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "echo2", defs[1].Name)
	assert.NotNil(t, defs[0].Schema)
}

func TestExecute_Success(t *testing.T) {
	r, collector := newTestRegistry(t)
	require.NoError(t, r.Register(echoTool("echo")))

	ec := NewExecutionContext("test", "tools/call")
	result, err := r.Execute(context.Background(), "echo", map[string]interface{}{"message": "hi"}, ec)

	require.NoError(t, err)
	assert.Equal(t, "hi", result.Payload)
	assert.Equal(t, "test", result.Source)
	assert.Greater(t, result.Elapsed, time.Duration(0))

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.SuccessfulRequests)
}

func TestExecute_UnknownTool(t *testing.T) {
	r, collector := newTestRegistry(t)

	ec := NewExecutionContext("test", "tools/call")
	_, err := r.Execute(context.Background(), "nope", nil, ec)

	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)

	// Even a rejected request consumed a request slot.
	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.FailedRequests)
}

func TestExecute_ValidationFailureBeforeHandler(t *testing.T) {
	r, collector := newTestRegistry(t)

	handlerRan := false
	tool := echoTool("echo")
	tool.Handler = func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
		handlerRan = true
		return nil, nil
	}
	require.NoError(t, r.Register(tool))

	ec := NewExecutionContext("test", "tools/call")
	_, err := r.Execute(context.Background(), "echo", map[string]interface{}{}, ec)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Field)
	assert.False(t, handlerRan, "handler must not run on validation failure")
	assert.Equal(t, int64(1), collector.Snapshot().FailedRequests)
}

func TestExecute_HandlerError(t *testing.T) {
	r, collector := newTestRegistry(t)

	boom := errors.New("downstream exploded")
	require.NoError(t, r.Register(Tool{
		Name:    "broken",
		Schema:  InputSchema{},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			return nil, boom
		},
	}))

	ec := NewExecutionContext("test", "tools/call")
	_, err := r.Execute(context.Background(), "broken", nil, ec)

	var execErr *ToolExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "broken", execErr.Tool)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), collector.Snapshot().FailedRequests)
}

func TestExecute_Timeout(t *testing.T) {
	r, collector := newTestRegistry(t)

	require.NoError(t, r.Register(Tool{
		Name:    "sleeper",
		Schema:  InputSchema{},
		Timeout: 50 * time.Millisecond,
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			select {
			case <-time.After(5 * time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}))

	ec := NewExecutionContext("test", "tools/call")
	start := time.Now()
	_, err := r.Execute(context.Background(), "sleeper", nil, ec)
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "sleeper", timeoutErr.Tool)
	assert.Less(t, elapsed, time.Second, "timeout must fire near the configured deadline")
	assert.Equal(t, int64(1), collector.Snapshot().FailedRequests)
}

func TestExecute_TimeoutDoesNotBlockOthers(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.Register(Tool{
		Name:    "stuck",
		Schema:  InputSchema{},
		Timeout: 100 * time.Millisecond,
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			time.Sleep(5 * time.Second) // deliberately ignores ctx
			return nil, nil
		},
	}))
	require.NoError(t, r.Register(echoTool("echo")))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, err := r.Execute(context.Background(), "stuck", nil, NewExecutionContext("test", "tools/call"))
		var timeoutErr *TimeoutError
		assert.ErrorAs(t, err, &timeoutErr)
	}()

	echoDone := make(chan struct{})
	go func() {
		defer wg.Done()
		result, err := r.Execute(context.Background(), "echo", map[string]interface{}{"message": "fast"}, NewExecutionContext("test", "tools/call"))
		assert.NoError(t, err)
		assert.Equal(t, "fast", result.Payload)
		close(echoDone)
	}()

	select {
	case <-echoDone:
	case <-time.After(time.Second):
		t.Fatal("unrelated execute call was delayed by a stuck tool")
	}
	wg.Wait()
}

// End-to-end scenario from the server contract: three tools called
// concurrently produce one success, one execution error, and one timeout,
// with the counters advancing by exactly three.
func TestExecute_ConcurrentMixedOutcomes(t *testing.T) {
	r, collector := newTestRegistry(t)

	require.NoError(t, r.Register(Tool{
		Name:   "a",
		Schema: InputSchema{"message": {Type: "string", Required: true}},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			time.Sleep(50 * time.Millisecond)
			return args["message"], nil
		},
	}))
	require.NoError(t, r.Register(Tool{
		Name:   "b",
		Schema: InputSchema{},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			return nil, errors.New("always fails")
		},
	}))
	require.NoError(t, r.Register(Tool{
		Name:    "c",
		Schema:  InputSchema{},
		Timeout: 200 * time.Millisecond,
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			select {
			case <-time.After(5 * time.Second):
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}))

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		result, err := r.Execute(context.Background(), "a", map[string]interface{}{"message": "ok"}, NewExecutionContext("test", "tools/call"))
		assert.NoError(t, err)
		assert.Equal(t, "ok", result.Payload)
	}()
	go func() {
		defer wg.Done()
		_, err := r.Execute(context.Background(), "b", nil, NewExecutionContext("test", "tools/call"))
		var execErr *ToolExecutionError
		assert.ErrorAs(t, err, &execErr)
	}()
	go func() {
		defer wg.Done()
		_, err := r.Execute(context.Background(), "c", nil, NewExecutionContext("test", "tools/call"))
		var timeoutErr *TimeoutError
		assert.ErrorAs(t, err, &timeoutErr)
	}()

	wg.Wait()

	snap := collector.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.SuccessfulRequests)
	assert.Equal(t, int64(2), snap.FailedRequests)
}

func TestExecute_DefaultTimeoutApplies(t *testing.T) {
	collector := metrics.NewCollector()
	r := New(50*time.Millisecond, collector)

	require.NoError(t, r.Register(Tool{
		Name:   "slow",
		Schema: InputSchema{},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *ExecutionContext) (interface{}, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}))

	_, err := r.Execute(context.Background(), "slow", nil, NewExecutionContext("test", "tools/call"))
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestNewExecutionContext(t *testing.T) {
	a := NewExecutionContext("http", "tools/call")
	b := NewExecutionContext("http", "tools/call")

	assert.NotEmpty(t, a.RequestID)
	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.Equal(t, "http", a.Transport)
	assert.Equal(t, "tools/call", a.Method)
}
