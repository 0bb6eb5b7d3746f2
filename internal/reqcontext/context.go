// Package reqcontext implements the per-request "context object" every
// callback receives: request identity, progress and logging
// notifications back through the owning session, resource reads
// delegated to the resource manager, and the shared platform client.
// Construction is lazy, one per dispatch; outside of a live request
// every accessor fails explicitly rather than returning a zero value.
package reqcontext

import (
	"context"
	"fmt"

	"github.com/MrWong99/guildmcp/internal/jsonrpc"
	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/platform"
)

// Notifier publishes a notification frame back through the session that
// owns the in-flight request, used for progress and logging messages.
type Notifier interface {
	Notify(ctx context.Context, method string, params any) error
}

// ResourceReader delegates resources/read to the resource manager, used
// by callbacks that read one resource from within another (e.g. a
// prompt that inlines a resource's content).
type ResourceReader interface {
	ReadResource(ctx context.Context, uri string) (content []byte, mimeType string, err error)
}

// ManifestLookup is the server backref managers use during autocomplete
// reference resolution: given a kind and key, return the live manifest.
type ManifestLookup interface {
	Get(kind manifest.Kind, key string) (*manifest.Manifest, bool)
}

// Context is the per-request context object. It embeds context.Context
// so it satisfies every stdlib-shaped API (including
// ratelimit.BucketKeyFunc) while adding the MCP-specific accessors.
type Context struct {
	context.Context

	requestID jsonrpc.ID
	sessionID string

	notifier  Notifier
	resources ResourceReader
	manifests ManifestLookup
	platform  platform.Client
}

// New constructs a request context. parent is the session's connection
// context; it is cancelled when the request is cancelled or the
// connection closes.
func New(parent context.Context, requestID jsonrpc.ID, sessionID string, notifier Notifier, resources ResourceReader, manifests ManifestLookup, client platform.Client) *Context {
	return &Context{
		Context:   parent,
		requestID: requestID,
		sessionID: sessionID,
		notifier:  notifier,
		resources: resources,
		manifests: manifests,
		platform:  client,
	}
}

// RequestID returns the id of the request this context was constructed
// for.
func (c *Context) RequestID() jsonrpc.ID {
	if c == nil {
		panic("reqcontext: RequestID accessed outside a request")
	}
	return c.requestID
}

// SessionID returns the owning session's id ("stdio" for the stdio
// session).
func (c *Context) SessionID() string {
	if c == nil {
		panic("reqcontext: SessionID accessed outside a request")
	}
	return c.sessionID
}

// Platform returns the shared platform client.
func (c *Context) Platform() (platform.Client, error) {
	if c == nil || c.platform == nil {
		return nil, fmt.Errorf("reqcontext: platform client accessed outside a request")
	}
	return c.platform, nil
}

// ReadResource delegates to the resource manager, for callbacks that
// need to read one resource while handling another request.
func (c *Context) ReadResource(uri string) ([]byte, string, error) {
	if c == nil || c.resources == nil {
		return nil, "", fmt.Errorf("reqcontext: ReadResource called outside a request")
	}
	return c.resources.ReadResource(c, uri)
}

// LookupManifest resolves a manifest by kind and key, for autocomplete
// reference resolution.
func (c *Context) LookupManifest(kind manifest.Kind, key string) (*manifest.Manifest, bool) {
	if c == nil || c.manifests == nil {
		return nil, false
	}
	return c.manifests.Get(kind, key)
}

// progressParams mirrors the MCP ProgressNotification params shape.
type progressParams struct {
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// ReportProgress publishes a notifications/progress frame for token.
func (c *Context) ReportProgress(token any, progress, total float64, message string) error {
	if c == nil || c.notifier == nil {
		return fmt.Errorf("reqcontext: ReportProgress called outside a request")
	}
	return c.notifier.Notify(c, "notifications/progress", progressParams{
		ProgressToken: token,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

// logParams mirrors the MCP LoggingMessageNotification params shape.
type logParams struct {
	Level  string `json:"level"`
	Logger string `json:"logger,omitempty"`
	Data   any    `json:"data"`
}

func (c *Context) log(level string, data any) error {
	if c == nil || c.notifier == nil {
		return fmt.Errorf("reqcontext: logging called outside a request")
	}
	return c.notifier.Notify(c, "notifications/message", logParams{Level: level, Logger: "guildmcp", Data: data})
}

// Info publishes an info-level log notification.
func (c *Context) Info(data any) error { return c.log("info", data) }

// Warning publishes a warning-level log notification.
func (c *Context) Warning(data any) error { return c.log("warning", data) }

// Error publishes an error-level log notification.
func (c *Context) Error(data any) error { return c.log("error", data) }

type contextKey struct{}

// Attach returns a context carrying rc, retrievable with [FromContext].
// Used by middleware that only has a bare context.Context in hand (e.g.
// manifest.CheckFunc) but still needs the full request context.
func Attach(parent context.Context, rc *Context) context.Context {
	return context.WithValue(parent, contextKey{}, rc)
}

// FromContext retrieves the *Context attached by [Attach].
func FromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(contextKey{}).(*Context)
	return rc, ok
}
