package manifest

import "github.com/MrWong99/guildmcp/internal/ratelimit"

// Plugin is the explicit registration entrypoint a statically linked
// plugin package implements. The reference implementation discovers
// modules by walking a directory tree at startup and draining whatever
// manifests each module's plugin manager accumulated; a Go binary links
// every plugin at compile time, so discovery becomes an explicit list of
// Plugins the server registers in order. The contract named in the
// source ("plugins accumulate manifests into a shared list that the
// server drains") is unchanged, only the discovery mechanism is static.
type Plugin interface {
	// Name identifies the plugin in startup logs and diagnostics.
	Name() string

	// Register contributes manifests to mgr.
	Register(mgr *Manager)
}

// Manager accumulates manifests contributed by one or more [Plugin]s
// before they are drained into a [Registry]. Corresponds to the
// reference implementation's plugin manager: a per-module accumulator
// that the server later drains wholesale.
type Manager struct {
	pending []*Manifest
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Tool registers a tool manifest.
func (m *Manager) Tool(name string, invoker Invoker, opts ...Option) *Manifest {
	manifest := &Manifest{Kind: Tool, Name: name, Enabled: true, Invoker: invoker, Tool: &ToolExtras{}}
	applyOptions(manifest, opts)
	m.pending = append(m.pending, manifest)
	return manifest
}

// Resource registers a resource (template) manifest.
func (m *Manager) Resource(name, uri string, invoker Invoker, opts ...Option) *Manifest {
	manifest := &Manifest{Kind: Resource, Name: name, Enabled: true, Invoker: invoker, Resource: &ResourceExtras{URI: uri}}
	applyOptions(manifest, opts)
	m.pending = append(m.pending, manifest)
	return manifest
}

// Prompt registers a prompt manifest.
func (m *Manager) Prompt(name string, invoker Invoker, opts ...Option) *Manifest {
	manifest := &Manifest{Kind: Prompt, Name: name, Enabled: true, Invoker: invoker, Prompt: &PromptExtras{}}
	applyOptions(manifest, opts)
	m.pending = append(m.pending, manifest)
	return manifest
}

// Drain returns every manifest accumulated so far and clears the
// accumulator, mirroring the reference implementation's
// drain-on-startup semantics.
func (m *Manager) Drain() []*Manifest {
	out := m.pending
	m.pending = nil
	return out
}

// Option customizes a manifest at registration time.
type Option func(*Manifest)

func applyOptions(m *Manifest, opts []Option) {
	for _, opt := range opts {
		opt(m)
	}
}

// WithTitle sets the manifest's display title.
func WithTitle(title string) Option {
	return func(m *Manifest) { m.Title = title }
}

// WithDescription sets the manifest's description.
func WithDescription(desc string) Option {
	return func(m *Manifest) { m.Description = desc }
}

// WithChecks appends ordered predicates gating dispatch.
func WithChecks(checks ...CheckFunc) Option {
	return func(m *Manifest) { m.Checks = append(m.Checks, checks...) }
}

// WithCooldown attaches a rate-limit config to the manifest.
func WithCooldown(cfg ratelimit.Config) Option {
	return func(m *Manifest) { m.Cooldown = &cfg }
}

// WithAnnotations sets tool-only annotation hints. Ignored for non-tool
// manifests.
func WithAnnotations(a ToolAnnotations) Option {
	return func(m *Manifest) {
		if m.Tool != nil {
			m.Tool.Annotations = &a
		}
	}
}

// WithStructuredOutput marks a tool manifest as returning structured
// content in addition to its text content block. Ignored for non-tool
// manifests.
func WithStructuredOutput() Option {
	return func(m *Manifest) {
		if m.Tool != nil {
			m.Tool.StructuredOutput = true
		}
	}
}

// WithMimeType sets a resource manifest's mime type. Ignored for
// non-resource manifests.
func WithMimeType(mime string) Option {
	return func(m *Manifest) {
		if m.Resource != nil {
			m.Resource.MimeType = mime
		}
	}
}

// WithPromptArguments sets a prompt manifest's declared argument list.
// Ignored for non-prompt manifests.
func WithPromptArguments(args ...PromptArgument) Option {
	return func(m *Manifest) {
		if m.Prompt != nil {
			m.Prompt.Arguments = args
		}
	}
}
