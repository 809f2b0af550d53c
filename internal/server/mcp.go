package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
)

// newMCPServer builds the mcp-go server that backs the stdio binding.
// Every registered tool and resource is exposed through it; handlers all
// funnel into the dispatcher.
func newMCPServer(name, version string, d *Dispatcher) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		name,
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
	)
	s.AddTools(mcpTools(d)...)
	s.AddResources(mcpResources(d)...)
	return s
}

func mcpTools(d *Dispatcher) []mcpserver.ServerTool {
	definitions := d.ListTools()
	serverTools := make([]mcpserver.ServerTool, 0, len(definitions))
	for _, def := range definitions {
		serverTools = append(serverTools, mcpserver.ServerTool{
			Tool: mcp.Tool{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: def.Schema.MCPSchema(),
			},
			Handler: toolHandler(d, def.Name),
		})
	}
	return serverTools
}

// toolHandler adapts one registry tool to the mcp-go handler signature.
// Tool failures come back as error results, not protocol errors, so
// clients see the failure in-band.
func toolHandler(d *Dispatcher, name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := req.Params.Arguments.(map[string]interface{})
		if !ok {
			if req.Params.Arguments == nil {
				args = map[string]interface{}{}
			} else {
				return mcp.NewToolResultError(fmt.Sprintf("tool %s: arguments must be an object", name)), nil
			}
		}

		result, err := d.CallTool(ctx, "stdio", name, args)
		if err != nil {
			var unknown *registry.UnknownToolError
			if errors.As(err, &unknown) {
				return nil, err
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := json.MarshalIndent(result.Content, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("tool %s: encode result: %v", name, err)), nil
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}

func mcpResources(d *Dispatcher) []mcpserver.ServerResource {
	resources := d.ListResources()
	serverResources := make([]mcpserver.ServerResource, 0, len(resources))
	for _, descriptor := range resources {
		serverResources = append(serverResources, mcpserver.ServerResource{
			Resource: mcp.Resource{
				URI:         descriptor.URI,
				Name:        descriptor.Name,
				Description: descriptor.Description,
				MIMEType:    descriptor.MimeType,
			},
			Handler: resourceHandler(d, descriptor.URI),
		})
	}
	return serverResources
}

func resourceHandler(d *Dispatcher, uri string) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		content, err := d.ReadResource(ctx, uri)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     content,
			},
		}, nil
	}
}
