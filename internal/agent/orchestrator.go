// Package agent runs free-text knowledge queries through a small state
// machine: analyze the query to pick tools, execute the picked tools in
// parallel, then synthesize one attributed answer from their outputs.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/services"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// rapidMaxResults caps per-tool result counts under StrategyRapid.
const rapidMaxResults = 5

// ToolExecutor is the slice of the tool registry the orchestrator needs.
// *registry.Registry satisfies it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, raw map[string]interface{}, ec *registry.ExecutionContext) (*registry.Result, error)
	Get(name string) *registry.Tool
}

// node identifies one state of the orchestration graph.
type node int

const (
	nodeAnalyze node = iota
	nodeExecuteTools
	nodeSynthesize
	nodeDone // terminal, no outgoing transition
)

func (n node) String() string {
	switch n {
	case nodeAnalyze:
		return "analyze_query"
	case nodeExecuteTools:
		return "execute_tools"
	case nodeSynthesize:
		return "synthesize_results"
	default:
		return "done"
	}
}

// Orchestrator drives the query graph. It is stateless across queries;
// each Run builds a fresh State and discards it when finished, so one
// instance serves concurrent callers.
type Orchestrator struct {
	executor ToolExecutor
	llm      services.CompletionService
	selector Selector
}

// NewOrchestrator wires the graph to a tool executor, a completion service
// for synthesis, and a tool selector.
func NewOrchestrator(executor ToolExecutor, llm services.CompletionService, selector Selector) *Orchestrator {
	return &Orchestrator{executor: executor, llm: llm, selector: selector}
}

// Run executes the full graph for one query and returns the terminal state.
// Individual tool failures are recorded in the state and never fail the
// run; only a synthesis failure (the completion service erroring) does.
func (o *Orchestrator) Run(ctx context.Context, query string, strategy Strategy) (*State, error) {
	st := &State{
		Query:       query,
		Strategy:    strategy,
		ToolResults: make(map[string]ToolResult),
	}

	current := nodeAnalyze
	for current != nodeDone {
		next, err := o.step(ctx, current, st)
		if err != nil {
			return nil, err
		}
		logging.Debug("Agent", "Transition %s -> %s", current, next)
		current = next
	}
	return st, nil
}

// step dispatches one node and returns the next. This is the whole
// transition table:
//
//	analyze_query      -> execute_tools       when tools were selected
//	analyze_query      -> synthesize_results  otherwise (degenerate path)
//	execute_tools      -> synthesize_results  unconditionally
//	synthesize_results -> done
func (o *Orchestrator) step(ctx context.Context, current node, st *State) (node, error) {
	switch current {
	case nodeAnalyze:
		o.analyzeQuery(st)
		if len(st.ToolsToCall) == 0 {
			return nodeSynthesize, nil
		}
		return nodeExecuteTools, nil

	case nodeExecuteTools:
		o.executeTools(ctx, st)
		return nodeSynthesize, nil

	case nodeSynthesize:
		if err := o.synthesizeResults(ctx, st); err != nil {
			return nodeDone, err
		}
		return nodeDone, nil

	default:
		return nodeDone, fmt.Errorf("agent: no transition from state %s", current)
	}
}

// analyzeQuery fills st.ToolsToCall from the selector. An empty selection
// is a selector defect; fall back to running the selector's degenerate path
// so the run still synthesizes an answer.
func (o *Orchestrator) analyzeQuery(st *State) {
	st.ToolsToCall = o.selector.Select(st.Query, st.Strategy)
	if len(st.ToolsToCall) == 0 {
		logging.Warn("Agent", "Selector returned no tools for query %q", st.Query)
	}
}

// executeTools fans the selected tools out in parallel and joins before
// synthesis. Each tool's success or failure lands in st.ToolResults
// independently: partial failure is not total failure.
func (o *Orchestrator) executeTools(ctx context.Context, st *State) {
	var mu sync.Mutex
	var g errgroup.Group

	for _, name := range st.ToolsToCall {
		g.Go(func() error {
			ec := registry.NewExecutionContext("agent", "agent/execute_tools")
			result, err := o.executor.Execute(ctx, name, o.argsFor(name, st), ec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logging.Warn("Agent", "Tool %s failed during query orchestration: %v", name, err)
				st.ToolResults[name] = ToolResult{Success: false, Error: err.Error()}
				return nil
			}
			st.ToolResults[name] = ToolResult{Success: true, Payload: result.Payload, Source: result.Source}
			st.addSource(result.Source)
			return nil
		})
	}
	_ = g.Wait() // tool errors are recorded per entry, never propagated
}

// argsFor builds the argument map for one selected tool, passing only the
// arguments the tool's schema actually declares so strategy hints never
// trip validation on tools that do not take them.
func (o *Orchestrator) argsFor(name string, st *State) map[string]interface{} {
	candidates := map[string]interface{}{
		"query":    st.Query,
		"strategy": string(st.Strategy),
	}
	if st.Strategy == StrategyRapid {
		candidates["maxResults"] = float64(rapidMaxResults)
	}

	tool := o.executor.Get(name)
	if tool == nil {
		return map[string]interface{}{"query": st.Query}
	}

	args := make(map[string]interface{})
	for field := range tool.Schema {
		if v, ok := candidates[field]; ok {
			args[field] = v
		}
	}
	return args
}

// synthesizeResults asks the completion service to merge all tool outputs
// into one answer. It runs even when nothing succeeded so FinalAnswer is
// always populated; in that case the model is instructed to say the data
// was insufficient instead of inventing an answer.
func (o *Orchestrator) synthesizeResults(ctx context.Context, st *State) error {
	prompt, err := buildSynthesisPrompt(st)
	if err != nil {
		return fmt.Errorf("agent: build synthesis prompt: %w", err)
	}

	answer, err := o.llm.Complete(ctx, services.CompletionRequest{
		System: synthesisSystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return fmt.Errorf("agent: synthesis: %w", err)
	}

	st.FinalAnswer = answer
	return nil
}

const synthesisSystemPrompt = `You are the answer synthesizer for a development knowledge assistant.
You receive a user question and the outputs of the tools that were run to answer it.
Produce one coherent answer. Cite which source contributed which fact.
If two sources contradict each other, say so explicitly instead of silently picking one.
If some tools failed, note that the answer has reduced confidence.
If no tool produced usable data, say the available data was insufficient to answer.`

// buildSynthesisPrompt renders the query and the full tool-result map for
// the completion service. Tool names are sorted so the prompt is stable for
// a given state.
func buildSynthesisPrompt(st *State) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", st.Query)

	if len(st.ToolResults) == 0 {
		b.WriteString("No tools produced results for this question.\n")
		return b.String(), nil
	}

	names := make([]string, 0, len(st.ToolResults))
	for name := range st.ToolResults {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("Tool results:\n")
	for _, name := range names {
		result := st.ToolResults[name]
		if !result.Success {
			fmt.Fprintf(&b, "- %s: FAILED (%s)\n", name, result.Error)
			continue
		}
		payload, err := json.Marshal(result.Payload)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "- %s (source: %s): %s\n", name, result.Source, payload)
	}
	return b.String(), nil
}
