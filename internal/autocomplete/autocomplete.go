// Package autocomplete implements per-manifest argument completion:
// resolving a PromptReference or ResourceTemplateReference to its live
// manifest and invoking the registered completion callback. The argument
// value and sibling arguments reach the callback as the raw strings the
// client sent; no type coercion is applied to them.
package autocomplete

import (
	"context"
	"fmt"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// Reference names the thing a client is asking for completions against:
// a prompt by name, or a resource template by URI.
type Reference struct {
	Kind manifest.Kind
	Key  string
}

// Completion is the wire shape returned to the client.
type Completion struct {
	Values  []string
	Total   int
	HasMore bool
}

// Handler resolves references to manifests and dispatches to their
// registered per-argument callbacks.
type Handler struct {
	Registry *manifest.Registry
}

// New returns a Handler backed by registry.
func New(registry *manifest.Registry) *Handler {
	return &Handler{Registry: registry}
}

// Complete resolves ref and runs the registered completion callback for
// argName. The in-progress argument value and any supplied sibling
// arguments are passed to the callback as strings; they are not coerced
// to the argument types the manifest declares.
//
// Missing reference or missing arg-name callback both raise Internal:
// both indicate a server-side registration bug, never a client error.
func (h *Handler) Complete(ctx context.Context, ref Reference, argName, partial string, contextArgs map[string]string) (*Completion, error) {
	m, ok := h.Registry.Get(ref.Kind, ref.Key)
	if !ok || !m.Enabled {
		return nil, mcperr.New(mcperr.Internal, "autocomplete: no manifest for %s %q", ref.Kind, ref.Key)
	}

	fn, ok := m.Autocomplete[argName]
	if !ok {
		return nil, mcperr.New(mcperr.Internal, "autocomplete: no callback registered for argument %q on %s", argName, m.Key())
	}

	values, err := fn(ctx, m, partial, contextArgs)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: callback for %s.%s: %w", m.Key(), argName, err)
	}
	return &Completion{Values: values, Total: len(values), HasMore: false}, nil
}
