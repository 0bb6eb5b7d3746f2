package mcpserver

import (
	"context"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// ToolManager serves tools/list and tools/call against the registry.
type ToolManager struct {
	registry *manifest.Registry
}

func newToolManager(registry *manifest.Registry) *ToolManager {
	return &ToolManager{registry: registry}
}

// List serializes every enabled tool manifest into its wire shape.
func (m *ToolManager) List() ListToolsResult {
	manifests := m.registry.List(manifest.Tool)
	tools := make([]Tool, 0, len(manifests))
	for _, man := range manifests {
		tool := Tool{
			Name:        man.Name,
			Title:       man.Title,
			Description: man.Description,
			InputSchema: man.Invoker.Schema(),
		}
		if man.Tool != nil && man.Tool.Annotations != nil {
			a := man.Tool.Annotations
			tool.Annotations = &ToolAnnotations{
				ReadOnlyHint:    a.ReadOnlyHint,
				DestructiveHint: a.DestructiveHint,
				IdempotentHint:  a.IdempotentHint,
				OpenWorldHint:   a.OpenWorldHint,
			}
		}
		tools = append(tools, tool)
	}
	return ListToolsResult{Tools: tools}
}

// Call locates the named tool manifest, invokes its callback through the
// coercing Invoker, and converts the result into the content/structured
// content pair the manifest's StructuredOutput flag selects.
func (m *ToolManager) Call(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	man, ok := m.registry.Get(manifest.Tool, name)
	if !ok || !man.Enabled {
		return nil, mcperr.New(mcperr.MethodNotFound, "no such tool %q", name)
	}

	result, err := man.Invoker.Invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	if man.Tool != nil && man.Tool.StructuredOutput {
		return &CallToolResult{
			Content:           []ContentBlock{{Type: "text", Text: stringify(result)}},
			StructuredContent: result,
		}, nil
	}
	return &CallToolResult{Content: []ContentBlock{{Type: "text", Text: stringify(result)}}}, nil
}
