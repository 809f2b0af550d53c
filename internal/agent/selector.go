package agent

import "strings"

// Selector decides which tools a free-text query needs. The orchestration
// graph only depends on this interface, so the matching heuristic can be
// swapped without touching the state machine.
type Selector interface {
	Select(query string, strategy Strategy) []string
}

// SelectionRule maps keywords to one tool: if any keyword appears in the
// query (case-insensitive substring), the tool is selected.
type SelectionRule struct {
	Keywords []string
	Tool     string
}

// SelectionTable is a keyword-driven Selector. DefaultTool is selected when
// no rule matches, so the selection is never empty.
type SelectionTable struct {
	Rules       []SelectionRule
	DefaultTool string
}

// Compile-time interface check.
var _ Selector = SelectionTable{}

// DefaultSelectionTable returns the stock matching table over the server's
// retrieval tools. The keyword set is a default, not a contract; deployments
// can substitute their own table.
func DefaultSelectionTable() SelectionTable {
	return SelectionTable{
		Rules: []SelectionRule{
			{Keywords: []string{"ticket", "issue", "jira", "bug"}, Tool: "search_jira_tickets"},
			{Keywords: []string{"commit", "change", "changelog", "merged"}, Tool: "search_git_commits"},
			{Keywords: []string{"code", "function", "implementation", "file"}, Tool: "search_code_files"},
		},
		DefaultTool: "query_aoma_knowledge",
	}
}

// Select implements Selector. With StrategyComprehensive every tool in the
// table (rules plus default) is selected; otherwise each matching rule
// contributes its tool, falling back to DefaultTool when nothing matches.
func (t SelectionTable) Select(query string, strategy Strategy) []string {
	if strategy == StrategyComprehensive {
		tools := make([]string, 0, len(t.Rules)+1)
		for _, rule := range t.Rules {
			tools = append(tools, rule.Tool)
		}
		return append(tools, t.DefaultTool)
	}

	lowered := strings.ToLower(query)
	var tools []string
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				tools = append(tools, rule.Tool)
				break
			}
		}
	}
	if len(tools) == 0 {
		tools = append(tools, t.DefaultTool)
	}
	return tools
}
