package server

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ptybridge/ptybridge/internal/types"
)

// runStdio serves the MCP control channel over stdin/stdout. Every
// registered tool is exposed one-to-one; each call funnels through the
// dispatcher so the uniform failure contract applies regardless of surface.
func (s *Server) runStdio(ctx context.Context) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "ptybridge",
		Version: Version,
	}, nil)

	for _, tool := range s.dispatcher.Registry().Tools() {
		toolID := tool.ID
		srv.AddTool(&mcp.Tool{
			Name:        toolID,
			Description: tool.Description,
			InputSchema: parameterSchema(tool),
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var params map[string]interface{}
			if raw, ok := req.Params.Arguments.(json.RawMessage); ok && len(raw) > 0 {
				if err := json.Unmarshal(raw, &params); err != nil {
					return textResult("invalid arguments: "+err.Error(), true), nil
				}
			}

			result := s.dispatcher.Dispatch(ctx, toolID, params, &types.Context{
				RequestID: uuid.NewString(),
				Caller:    "stdio",
			})
			return textResult(result.Text(), !result.Success), nil
		})
	}

	s.logger.Info("stdio control loop started",
		zap.Int("tools", len(s.dispatcher.Registry().Tools())))

	return srv.Run(ctx, &mcp.StdioTransport{})
}

// parameterSchema builds the JSON schema for a tool's declared parameters.
func parameterSchema(tool types.Tool) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(tool.Parameters))
	var required []string
	for _, p := range tool.Parameters {
		props[p.Name] = &jsonschema.Schema{
			Type:        p.Type,
			Description: p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}
