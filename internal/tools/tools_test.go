package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/agent"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/metrics"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/services"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/services/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogue(t *testing.T, data services.DataService, llm services.CompletionService) *registry.Registry {
	t.Helper()
	reg := registry.New(time.Second, metrics.NewCollector())
	require.NoError(t, RegisterRetrievalTools(reg, data, llm))
	return reg
}

func execute(t *testing.T, reg *registry.Registry, name string, args map[string]interface{}) (*registry.Result, error) {
	t.Helper()
	return reg.Execute(context.Background(), name, args, registry.NewExecutionContext("test", "tools/call"))
}

func TestRegisterRetrievalTools_Catalogue(t *testing.T) {
	reg := newCatalogue(t, &mock.DataService{}, &mock.CompletionService{})

	var names []string
	for _, def := range reg.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{
		"query_aoma_knowledge",
		"search_jira_tickets",
		"search_git_commits",
		"search_code_files",
	}, names)
}

func TestSearchJiraTickets(t *testing.T) {
	data := &mock.DataService{
		Tickets: []services.Ticket{{Key: "AOMA-1", Project: "AOMA", Summary: "login timeout"}},
	}
	reg := newCatalogue(t, data, &mock.CompletionService{})

	result, err := execute(t, reg, "search_jira_tickets", map[string]interface{}{"query": "timeout"})
	require.NoError(t, err)

	tickets, ok := result.Payload.([]services.Ticket)
	require.True(t, ok)
	require.Len(t, tickets, 1)
	assert.Equal(t, "AOMA-1", tickets[0].Key)
	assert.Equal(t, SourceJira, result.Source)
}

func TestSearchJiraTickets_ValidationRejectsEmptyQuery(t *testing.T) {
	reg := newCatalogue(t, &mock.DataService{}, &mock.CompletionService{})

	_, err := execute(t, reg, "search_jira_tickets", map[string]interface{}{"query": ""})

	var verr *registry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "query", verr.Field)
}

func TestSearchGitCommits_DataError(t *testing.T) {
	data := &mock.DataService{Err: errors.New("connection reset")}
	reg := newCatalogue(t, data, &mock.CompletionService{})

	_, err := execute(t, reg, "search_git_commits", map[string]interface{}{"query": "login"})

	var execErr *registry.ToolExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "search_git_commits", execErr.Tool)
}

func TestQueryAomaKnowledge_AnswersFromDocuments(t *testing.T) {
	data := &mock.DataService{
		Documents: []services.Document{{Title: "Asset ingestion", Content: "Assets flow through the mesh."}},
	}
	llm := &mock.CompletionService{
		CompleteFunc: func(ctx context.Context, req services.CompletionRequest) (string, error) {
			assert.Contains(t, req.Prompt, "Asset ingestion")
			return "Assets flow through the mesh [Asset ingestion].", nil
		},
	}
	reg := newCatalogue(t, data, llm)

	result, err := execute(t, reg, "query_aoma_knowledge", map[string]interface{}{"query": "how does ingestion work"})
	require.NoError(t, err)

	answer, ok := result.Payload.(*KnowledgeAnswer)
	require.True(t, ok)
	assert.Contains(t, answer.Answer, "mesh")
	require.Len(t, answer.Documents, 1)
	assert.Equal(t, SourceKnowledge, result.Source)
}

func TestQueryAomaKnowledge_NoDocumentsStillAnswers(t *testing.T) {
	llm := &mock.CompletionService{
		CompleteFunc: func(ctx context.Context, req services.CompletionRequest) (string, error) {
			assert.Contains(t, req.Prompt, "No knowledge base documents matched")
			return "No AOMA documentation covers this.", nil
		},
	}
	reg := newCatalogue(t, &mock.DataService{}, llm)

	result, err := execute(t, reg, "query_aoma_knowledge", map[string]interface{}{"query": "something obscure"})
	require.NoError(t, err)

	answer := result.Payload.(*KnowledgeAnswer)
	assert.NotEmpty(t, answer.Answer)
	assert.Empty(t, answer.Documents)
}

func TestRegisterAnalysisTool_RunsOrchestrator(t *testing.T) {
	data := &mock.DataService{
		Commits: []services.Commit{{Hash: "abc123", Message: "fix login retry"}},
	}
	llm := &mock.CompletionService{
		CompleteFunc: func(ctx context.Context, req services.CompletionRequest) (string, error) {
			return "login was fixed in abc123 (git)", nil
		},
	}
	reg := newCatalogue(t, data, llm)
	orch := agent.NewOrchestrator(reg, llm, agent.DefaultSelectionTable())
	require.NoError(t, RegisterAnalysisTool(reg, orch))

	result, err := execute(t, reg, "analyze_development_context", map[string]interface{}{
		"query": "which commit changed login",
	})
	require.NoError(t, err)

	state, ok := result.Payload.(*agent.State)
	require.True(t, ok)
	assert.Equal(t, []string{"search_git_commits"}, state.ToolsToCall)
	assert.NotEmpty(t, state.FinalAnswer)
	assert.Equal(t, []string{SourceGit}, state.Sources)
}

func TestRegisterIntrospectionTools(t *testing.T) {
	reg := newCatalogue(t, &mock.DataService{}, &mock.CompletionService{})

	checker := health.NewAggregator(time.Second, time.Minute)
	checker.RegisterProbe("postgres", func(ctx context.Context) error { return nil })

	info := ServerInfo{Name: "aoma-mesh", Version: "1.2.3", Transports: []string{"stdio", "http"}}
	require.NoError(t, RegisterIntrospectionTools(reg, checker, info))

	result, err := execute(t, reg, "get_system_health", map[string]interface{}{"forceRefresh": true})
	require.NoError(t, err)
	report, ok := result.Payload.(health.Report)
	require.True(t, ok)
	assert.Equal(t, health.StatusHealthy, report.Status)

	result, err = execute(t, reg, "get_server_capabilities", nil)
	require.NoError(t, err)
	caps, ok := result.Payload.(*Capabilities)
	require.True(t, ok)
	assert.Equal(t, "aoma-mesh", caps.Name)
	assert.Equal(t, "1.2.3", caps.Version)
	assert.Equal(t, 6, caps.ToolCount)
	assert.Equal(t, []string{"stdio", "http"}, caps.Transports)
}
