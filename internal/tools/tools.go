// Package tools defines the server's fixed tool catalogue: the retrieval
// tools over the structured-data service, the orchestrated context-analysis
// tool, and the introspection tools. Handlers here are thin adapters; the
// searched stores and the completion service live behind the interfaces in
// internal/services.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/agent"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/services"
)

// Source labels attached to tool results; synthesis uses them for
// attribution.
const (
	SourceKnowledge = "aoma-kb"
	SourceJira      = "jira"
	SourceGit       = "git"
	SourceCode      = "code"
	SourceServer    = "server"
)

var strategyEnum = []string{
	string(agent.StrategyFocused),
	string(agent.StrategyComprehensive),
	string(agent.StrategyRapid),
}

// KnowledgeAnswer is the payload of query_aoma_knowledge.
type KnowledgeAnswer struct {
	Answer    string              `json:"answer"`
	Documents []services.Document `json:"documents"`
}

// Capabilities is the payload of get_server_capabilities.
type Capabilities struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	ToolCount  int      `json:"toolCount"`
	Transports []string `json:"transports"`
}

// ServerInfo identifies the running server for the introspection tools.
type ServerInfo struct {
	Name       string
	Version    string
	Transports []string
}

func maxResultsArg(args map[string]interface{}) int {
	if v, ok := args["maxResults"].(float64); ok {
		return int(v)
	}
	return 0
}

// RegisterRetrievalTools adds the four retrieval tools to the registry.
func RegisterRetrievalTools(reg *registry.Registry, data services.DataService, llm services.CompletionService) error {
	catalogue := []registry.Tool{
		{
			Name:        "query_aoma_knowledge",
			Description: "Query the AOMA knowledge base and answer from the matching documents.",
			Source:      SourceKnowledge,
			Schema: registry.InputSchema{
				"query":    {Type: "string", Description: "Free-text question", Required: true, MinLength: 1, MaxLength: 2000},
				"strategy": {Type: "string", Description: "Answering strategy", Enum: strategyEnum, Default: string(agent.StrategyFocused)},
			},
			Handler: knowledgeHandler(data, llm),
		},
		{
			Name:        "search_jira_tickets",
			Description: "Search Jira tickets by summary text, optionally scoped to one project.",
			Source:      SourceJira,
			Schema: registry.InputSchema{
				"query":      {Type: "string", Description: "Search text", Required: true, MinLength: 1, MaxLength: 500},
				"projectKey": {Type: "string", Description: "Restrict to one Jira project"},
				"maxResults": {Type: "number", Description: "Maximum tickets to return", Default: float64(15)},
			},
			Handler: func(ctx context.Context, args map[string]interface{}, ec *registry.ExecutionContext) (interface{}, error) {
				project, _ := args["projectKey"].(string)
				query := args["query"].(string)
				return data.SearchTickets(ctx, query, project, maxResultsArg(args))
			},
		},
		{
			Name:        "search_git_commits",
			Description: "Search git commit history by commit message text.",
			Source:      SourceGit,
			Schema: registry.InputSchema{
				"query":      {Type: "string", Description: "Search text", Required: true, MinLength: 1, MaxLength: 500},
				"maxResults": {Type: "number", Description: "Maximum commits to return", Default: float64(15)},
			},
			Handler: func(ctx context.Context, args map[string]interface{}, ec *registry.ExecutionContext) (interface{}, error) {
				return data.SearchCommits(ctx, args["query"].(string), maxResultsArg(args))
			},
		},
		{
			Name:        "search_code_files",
			Description: "Search indexed code files by path or content.",
			Source:      SourceCode,
			Schema: registry.InputSchema{
				"query":      {Type: "string", Description: "Search text", Required: true, MinLength: 1, MaxLength: 500},
				"language":   {Type: "string", Description: "Restrict to one language"},
				"maxResults": {Type: "number", Description: "Maximum files to return", Default: float64(15)},
			},
			Handler: func(ctx context.Context, args map[string]interface{}, ec *registry.ExecutionContext) (interface{}, error) {
				language, _ := args["language"].(string)
				return data.SearchCodeFiles(ctx, args["query"].(string), language, maxResultsArg(args))
			},
		},
	}

	for _, tool := range catalogue {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// knowledgeHandler retrieves matching documents and answers from them.
// With no matching documents it still answers, flagged as ungrounded, so
// the caller gets a response instead of a protocol fault.
func knowledgeHandler(data services.DataService, llm services.CompletionService) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}, ec *registry.ExecutionContext) (interface{}, error) {
		query := args["query"].(string)
		strategy := agent.ParseStrategy(args["strategy"].(string))

		limit := 10
		if strategy == agent.StrategyRapid {
			limit = 3
		}
		docs, err := data.SearchDocuments(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("knowledge lookup: %w", err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Question: %s\n\n", query)
		if len(docs) == 0 {
			b.WriteString("No knowledge base documents matched. Say so and answer only if the question is answerable without them.\n")
		} else {
			b.WriteString("Knowledge base documents:\n")
			for _, doc := range docs {
				fmt.Fprintf(&b, "## %s\n%s\n\n", doc.Title, doc.Content)
			}
		}

		answer, err := llm.Complete(ctx, services.CompletionRequest{
			System: "Answer the question using only the provided AOMA knowledge base documents. Name the documents you used.",
			Prompt: b.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("knowledge completion: %w", err)
		}

		return &KnowledgeAnswer{Answer: answer, Documents: docs}, nil
	}
}

// QueryRunner runs one orchestrated query. *agent.Orchestrator satisfies it.
type QueryRunner interface {
	Run(ctx context.Context, query string, strategy agent.Strategy) (*agent.State, error)
}

// RegisterAnalysisTool adds analyze_development_context, which routes a
// free-text query through the orchestration graph. Register it after the
// retrieval tools: the orchestrator executes them through the same registry.
func RegisterAnalysisTool(reg *registry.Registry, runner QueryRunner) error {
	return reg.Register(registry.Tool{
		Name:        "analyze_development_context",
		Description: "Analyze a development question across Jira, git, code and the AOMA knowledge base, and synthesize one attributed answer.",
		Source:      SourceServer,
		Schema: registry.InputSchema{
			"query":    {Type: "string", Description: "Free-text question", Required: true, MinLength: 1, MaxLength: 2000},
			"strategy": {Type: "string", Description: "Breadth/depth trade-off", Enum: strategyEnum, Default: string(agent.StrategyFocused)},
		},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *registry.ExecutionContext) (interface{}, error) {
			strategy := agent.ParseStrategy(args["strategy"].(string))
			state, err := runner.Run(ctx, args["query"].(string), strategy)
			if err != nil {
				return nil, err
			}
			return state, nil
		},
	})
}

// RegisterIntrospectionTools adds get_system_health and
// get_server_capabilities.
func RegisterIntrospectionTools(reg *registry.Registry, checker *health.Aggregator, info ServerInfo) error {
	if err := reg.Register(registry.Tool{
		Name:        "get_system_health",
		Description: "Report the health of the server's dependent services.",
		Source:      SourceServer,
		Schema: registry.InputSchema{
			"forceRefresh": {Type: "boolean", Description: "Bypass the cached report", Default: false},
		},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *registry.ExecutionContext) (interface{}, error) {
			force, _ := args["forceRefresh"].(bool)
			return checker.Check(ctx, force), nil
		},
	}); err != nil {
		return err
	}

	return reg.Register(registry.Tool{
		Name:        "get_server_capabilities",
		Description: "Describe this server: version, tool count, transports.",
		Source:      SourceServer,
		Schema:      registry.InputSchema{},
		Handler: func(ctx context.Context, args map[string]interface{}, ec *registry.ExecutionContext) (interface{}, error) {
			return &Capabilities{
				Name:       info.Name,
				Version:    info.Version,
				ToolCount:  reg.Len(),
				Transports: info.Transports,
			}, nil
		},
	})
}
