package mcpserver

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/MrWong99/guildmcp/internal/manifest"
)

// ContentBlock is one element of a tool/prompt result's content list.
// Only the text variant is produced by the built-in plugins; the field
// is tagged so additional block types (image, resource link) can be
// added without breaking the wire shape.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolAnnotations is the wire shape of manifest.ToolAnnotations.
type ToolAnnotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint,omitempty"`
	DestructiveHint bool `json:"destructiveHint,omitempty"`
	IdempotentHint  bool `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool `json:"openWorldHint,omitempty"`
}

// Tool is one entry of a tools/list response.
type Tool struct {
	Name        string              `json:"name"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	InputSchema *jsonschema.Schema  `json:"inputSchema"`
	Annotations *ToolAnnotations    `json:"annotations,omitempty"`
}

// ListToolsResult is the tools/list response.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams is the tools/call request params.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallToolResult is the tools/call response: content blocks, optionally
// paired with structured content when the manifest opts in.
type CallToolResult struct {
	Content           []ContentBlock `json:"content"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

// Resource is one entry of a resources/list response (concrete URIs only).
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourcesResult is the resources/list response.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ResourceTemplate is one entry of a resources/templates/list response.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourceTemplatesResult is the resources/templates/list response.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
}

// ReadResourceParams is the resources/read request params.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is one element of a resources/read response.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ReadResourceResult is the resources/read response.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// PromptArgument is the wire shape of manifest.PromptArgument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt is one entry of a prompts/list response.
type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ListPromptsResult is the prompts/list response.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

// GetPromptParams is the prompts/get request params.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

// PromptMessage is one role-tagged message produced by a prompt callback.
type PromptMessage struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// GetPromptResult is the prompts/get response.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// CompleteParams is the completion/complete request params.
type CompleteParams struct {
	Ref      CompleteReference `json:"ref"`
	Argument CompleteArgument  `json:"argument"`
	Context  *CompleteContext  `json:"context,omitempty"`
}

// CompleteReference names a prompt or resource template to complete
// against.
type CompleteReference struct {
	Type string `json:"type"` // "ref/prompt" or "ref/resource"
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// Kind maps the reference's wire type to a manifest.Kind.
func (r CompleteReference) Kind() manifest.Kind {
	if r.Type == "ref/resource" {
		return manifest.Resource
	}
	return manifest.Prompt
}

// Key returns the registry key this reference resolves to.
func (r CompleteReference) Key() string {
	if r.Type == "ref/resource" {
		return r.URI
	}
	return r.Name
}

// CompleteArgument is the single argument a client is completing.
type CompleteArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompleteContext carries the sibling argument values the client has
// already filled in, as strings.
type CompleteContext struct {
	Arguments map[string]string `json:"arguments,omitempty"`
}

// CompleteResult is the completion/complete response.
type CompleteResult struct {
	Completion CompletionPayload `json:"completion"`
}

// CompletionPayload is the inner completion object.
type CompletionPayload struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

// EmptyResult is returned by methods with no meaningful payload (ping,
// subscribe/unsubscribe, setLevel).
type EmptyResult struct{}

// InitializeParams is the initialize request params.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      map[string]any `json:"clientInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

// InitializeResult is the initialize response.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      map[string]any `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

// SetLevelParams is the logging/setLevel request params.
type SetLevelParams struct {
	Level string `json:"level"`
}

// SubscribeParams is the resources/subscribe and resources/unsubscribe
// request params.
type SubscribeParams struct {
	URI string `json:"uri"`
}
