package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
)

func callToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestToolHandler_Success(t *testing.T) {
	d, _ := newTestDispatcher(t, true)
	handler := toolHandler(d, "echo")

	result, err := handler(context.Background(), callToolRequest("echo", map[string]interface{}{"text": "hello"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, textContent.Text, "hello")
	assert.Contains(t, textContent.Text, "stdio")
}

func TestToolHandler_FailureStaysInBand(t *testing.T) {
	d, _ := newTestDispatcher(t, true)
	handler := toolHandler(d, "boom")

	result, err := handler(context.Background(), callToolRequest("boom", nil))
	require.NoError(t, err)
	require.True(t, result.IsError)

	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, textContent.Text, "backend exploded")
}

func TestToolHandler_ValidationFailureStaysInBand(t *testing.T) {
	d, _ := newTestDispatcher(t, true)
	handler := toolHandler(d, "echo")

	result, err := handler(context.Background(), callToolRequest("echo", map[string]interface{}{}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestToolHandler_UnknownToolIsProtocolError(t *testing.T) {
	d, _ := newTestDispatcher(t, true)
	handler := toolHandler(d, "nope")

	_, err := handler(context.Background(), callToolRequest("nope", nil))
	var unknown *registry.UnknownToolError
	require.ErrorAs(t, err, &unknown)
}

func TestMCPTools_MirrorRegistry(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	serverTools := mcpTools(d)
	require.Len(t, serverTools, 2)
	assert.Equal(t, "echo", serverTools[0].Tool.Name)
	assert.Equal(t, "object", serverTools[0].Tool.InputSchema.Type)
	assert.Contains(t, serverTools[0].Tool.InputSchema.Required, "text")
	assert.Equal(t, "boom", serverTools[1].Tool.Name)
}

func TestResourceHandler_ReturnsJSONContents(t *testing.T) {
	d, _ := newTestDispatcher(t, true)
	handler := resourceHandler(d, ResourceHealthURI)

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	textContents, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ResourceHealthURI, textContents.URI)
	assert.Equal(t, "application/json", textContents.MIMEType)

	var report health.Report
	require.NoError(t, json.Unmarshal([]byte(textContents.Text), &report))
	assert.Equal(t, health.StatusHealthy, report.Status)
}

func TestMCPResources_Complete(t *testing.T) {
	d, _ := newTestDispatcher(t, true)

	serverResources := mcpResources(d)
	require.Len(t, serverResources, 3)
	assert.Equal(t, ResourceHealthURI, serverResources[0].Resource.URI)
	assert.Equal(t, ResourceMetricsURI, serverResources[1].Resource.URI)
	assert.Equal(t, ResourceCatalogURI, serverResources[2].Resource.URI)
}
