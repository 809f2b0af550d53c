package agent

import "strings"

// Strategy controls how wide the analyze step casts its net and how many
// results each tool is asked for.
type Strategy string

const (
	// StrategyFocused runs only the tools the query's keywords select.
	StrategyFocused Strategy = "focused"
	// StrategyComprehensive runs every retrieval tool regardless of
	// keyword matches.
	StrategyComprehensive Strategy = "comprehensive"
	// StrategyRapid behaves like focused but caps per-tool result counts.
	StrategyRapid Strategy = "rapid"
)

// ParseStrategy normalizes a caller-supplied strategy string. Anything
// unrecognized falls back to focused.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyComprehensive:
		return StrategyComprehensive
	case StrategyRapid:
		return StrategyRapid
	default:
		return StrategyFocused
	}
}

// ToolResult is the per-tool record inside a query run. Either Payload
// (success) or Error (failure) is set.
type ToolResult struct {
	Success bool        `json:"success"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
	Source  string      `json:"source"`
}

// State threads a single query through the analyze/execute/synthesize
// graph. It is created per query and discarded when the run completes; no
// state survives between invocations.
//
// Invariants: ToolResults only ever holds entries for tools listed in
// ToolsToCall, and FinalAnswer stays empty until the synthesize node has
// run exactly once.
type State struct {
	Query       string                `json:"query"`
	Strategy    Strategy              `json:"strategy"`
	ToolsToCall []string              `json:"toolsToCall"`
	ToolResults map[string]ToolResult `json:"toolResults"`
	Sources     []string              `json:"sources"`
	FinalAnswer string                `json:"finalAnswer"`
}

// addSource appends a source label, deduplicated.
func (s *State) addSource(label string) {
	if label == "" {
		return
	}
	for _, existing := range s.Sources {
		if existing == label {
			return
		}
	}
	s.Sources = append(s.Sources, label)
}
