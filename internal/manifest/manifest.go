// Package manifest implements the declarative tool/resource/prompt
// registry: manifests are discovered at startup, indexed by (kind, key),
// and read lock-free for the remainder of the process lifetime.
package manifest

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/MrWong99/guildmcp/internal/ratelimit"
)

// Kind discriminates the three manifest flavors. Modeled as an explicit
// discriminator plus kind-specific extras rather than three unrelated
// registries, so the registry can hold one ordered map per kind while the
// server-wide listing/lookup code stays uniform.
type Kind int

const (
	Tool Kind = iota
	Resource
	Prompt
)

func (k Kind) String() string {
	switch k {
	case Tool:
		return "tool"
	case Resource:
		return "resource"
	case Prompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// CheckFunc is one ordered predicate gating dispatch of a manifest. It
// returns a non-nil error naming the failing condition, or nil to allow
// the request through. Predicates run in order; the chain short-circuits
// on the first failure.
type CheckFunc func(ctx context.Context) error

// Invoker is the interface a registered callback satisfies: the builder
// half of the "dynamic callback signature -> static schema" contract the
// reference implementation gets from runtime type introspection. Plugins
// hand the registry a typed Invoker instead of a bare function, so schema
// generation and argument coercion live next to the callback that needs
// them.
type Invoker interface {
	// Schema returns the JSON-Schema of the callback's typed parameters,
	// with any context parameter already pruned.
	Schema() *jsonschema.Schema

	// Invoke coerces raw (string-valued or already-typed) arguments into
	// the callback's parameter type and runs it.
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// ToolExtras holds the fields unique to a Tool manifest.
type ToolExtras struct {
	Annotations       *ToolAnnotations
	StructuredOutput  bool
}

// ToolAnnotations mirrors the MCP tool annotation hints (read-only,
// destructive, idempotent, open-world) surfaced in tools/list.
type ToolAnnotations struct {
	ReadOnlyHint    bool
	DestructiveHint bool
	IdempotentHint  bool
	OpenWorldHint   bool
}

// ResourceExtras holds the fields unique to a Resource manifest.
type ResourceExtras struct {
	URI      string
	MimeType string
}

// PromptArgument describes one prompt callback parameter as surfaced to
// clients in prompts/list.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptExtras holds the fields unique to a Prompt manifest.
type PromptExtras struct {
	Arguments []PromptArgument
}

// Manifest is one registry record: a tool, resource template, or prompt,
// its callback, and the cross-cutting concerns (checks, cooldown) the
// middleware pipeline consults before invoking it.
type Manifest struct {
	Kind        Kind
	Name        string
	Title       string
	Description string
	Enabled     bool

	Checks   []CheckFunc
	Cooldown *ratelimit.Config

	Invoker Invoker

	Tool     *ToolExtras
	Resource *ResourceExtras
	Prompt   *PromptExtras

	// Autocomplete maps argument name to the callback that completes it.
	// Populated via [Manifest.Autocomplete]; only meaningful for Resource
	// and Prompt manifests.
	Autocomplete map[string]AutocompleteFunc
}

// AutocompleteFunc is the callback registered against one manifest
// argument name. It receives the manifest, the partial value the client
// is completing, and the sibling argument values the client supplied as
// context, as uncoerced strings.
type AutocompleteFunc func(ctx context.Context, m *Manifest, partial string, contextArgs map[string]string) ([]string, error)

// Key returns the registry key for this manifest: its name for tools and
// prompts, its URI template for resources.
func (m *Manifest) Key() string {
	if m.Kind == Resource && m.Resource != nil {
		return m.Resource.URI
	}
	return m.Name
}

// WithAutocomplete registers fn as the completion callback for argName,
// validating that argName actually names a parameter of the manifest's
// schema. Mirrors the reference implementation's
// `manifest.autocomplete(argument_name)` decorator.
func (m *Manifest) WithAutocomplete(argName string, fn AutocompleteFunc) error {
	if m.Kind != Resource && m.Kind != Prompt {
		return &ManifestError{Reason: "autocomplete only applies to resource and prompt manifests", Key: m.Key()}
	}
	schema := m.Invoker.Schema()
	if schema == nil || schema.Properties == nil {
		return &ManifestError{Reason: "manifest has no schema to validate against", Key: m.Key()}
	}
	if _, ok := schema.Properties[argName]; !ok {
		return &ManifestError{Reason: "argument '" + argName + "' is not a declared parameter", Key: m.Key()}
	}
	if m.Autocomplete == nil {
		m.Autocomplete = make(map[string]AutocompleteFunc)
	}
	m.Autocomplete[argName] = fn
	return nil
}

// ManifestError reports a registration-time problem with a manifest.
type ManifestError struct {
	Reason string
	Key    string
}

func (e *ManifestError) Error() string {
	return "manifest " + e.Key + ": " + e.Reason
}
