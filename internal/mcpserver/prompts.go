package mcpserver

import (
	"context"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// PromptManager serves prompts/list and prompts/get against the registry.
type PromptManager struct {
	registry *manifest.Registry
}

func newPromptManager(registry *manifest.Registry) *PromptManager {
	return &PromptManager{registry: registry}
}

// List serializes every enabled prompt manifest into its wire shape.
func (m *PromptManager) List() ListPromptsResult {
	manifests := m.registry.List(manifest.Prompt)
	prompts := make([]Prompt, 0, len(manifests))
	for _, man := range manifests {
		prompt := Prompt{
			Name:        man.Name,
			Title:       man.Title,
			Description: man.Description,
		}
		if man.Prompt != nil {
			for _, a := range man.Prompt.Arguments {
				prompt.Arguments = append(prompt.Arguments, PromptArgument{
					Name:        a.Name,
					Description: a.Description,
					Required:    a.Required,
				})
			}
		}
		prompts = append(prompts, prompt)
	}
	return ListPromptsResult{Prompts: prompts}
}

// Get invokes the named prompt's callback and normalizes whatever it
// returns into a role-tagged message list. A callback may return a
// single string (wrapped as one user message), a []string (one user
// message per entry), or a []PromptMessage for full control over roles.
func (m *PromptManager) Get(ctx context.Context, name string, args map[string]string) (*GetPromptResult, error) {
	man, ok := m.registry.Get(manifest.Prompt, name)
	if !ok || !man.Enabled {
		return nil, mcperr.New(mcperr.MethodNotFound, "no such prompt %q", name)
	}

	invokeArgs := make(map[string]any, len(args))
	for k, v := range args {
		invokeArgs[k] = v
	}
	result, err := man.Invoker.Invoke(ctx, invokeArgs)
	if err != nil {
		return nil, err
	}

	messages, err := normalizePromptMessages(result)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Internal, err, "prompt %q returned an unusable result", name)
	}
	return &GetPromptResult{Description: man.Description, Messages: messages}, nil
}

func normalizePromptMessages(result any) ([]PromptMessage, error) {
	switch v := result.(type) {
	case []PromptMessage:
		return v, nil
	case string:
		return []PromptMessage{{Role: "user", Content: ContentBlock{Type: "text", Text: v}}}, nil
	case []string:
		messages := make([]PromptMessage, 0, len(v))
		for _, text := range v {
			messages = append(messages, PromptMessage{Role: "user", Content: ContentBlock{Type: "text", Text: text}})
		}
		return messages, nil
	default:
		return []PromptMessage{{Role: "user", Content: ContentBlock{Type: "text", Text: stringify(v)}}}, nil
	}
}
