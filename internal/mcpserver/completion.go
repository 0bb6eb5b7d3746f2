package mcpserver

import (
	"context"

	"github.com/MrWong99/guildmcp/internal/autocomplete"
)

// CompletionManager serves completion/complete, delegating to the
// autocomplete handler for the actual per-argument callback.
type CompletionManager struct {
	handler *autocomplete.Handler
}

func newCompletionManager(handler *autocomplete.Handler) *CompletionManager {
	return &CompletionManager{handler: handler}
}

func (m *CompletionManager) Complete(ctx context.Context, params CompleteParams) (*CompleteResult, error) {
	ref := autocomplete.Reference{Kind: params.Ref.Kind(), Key: params.Ref.Key()}
	var contextArgs map[string]string
	if params.Context != nil {
		contextArgs = params.Context.Arguments
	}

	completion, err := m.handler.Complete(ctx, ref, params.Argument.Name, params.Argument.Value, contextArgs)
	if err != nil {
		return nil, err
	}
	return &CompleteResult{Completion: CompletionPayload{
		Values:  completion.Values,
		Total:   completion.Total,
		HasMore: completion.HasMore,
	}}, nil
}
