// Package middleware implements the onion-style interceptor pipeline
// that wraps every request and notification dispatch: for each
// registered middleware in declared order, chain = middleware.Wrap(chain),
// so execution walks outer to inner and post-processing happens as the
// stack unwinds. Ported from the reference implementation's
// functools.partial-based `_dispatch` method-table composition, collapsed
// into a single Wrap method per middleware since Go has no per-event-type
// virtual dispatch to mirror.
package middleware

import (
	"context"
	"time"

	"github.com/MrWong99/guildmcp/internal/manifest"
)

// EventType distinguishes a request from a notification.
type EventType int

const (
	EventRequest EventType = iota
	EventNotification
)

func (e EventType) String() string {
	if e == EventNotification {
		return "notification"
	}
	return "request"
}

// Context carries everything a middleware needs about the message it is
// intercepting. ManifestKind/ManifestKey are populated by the session
// runtime when it builds the Context, for the three rate-limited/checked methods (CallTool, GetPrompt,
// ReadResource) and left zero otherwise.
type Context struct {
	Context      context.Context
	Message      any
	Method       string
	EventType    EventType
	Timestamp    time.Time
	ManifestKind manifest.Kind
	ManifestKey  string
	HasManifest  bool
}

// Next is the continuation a [Middleware] calls to run the remainder of
// the chain.
type Next func(ctx *Context) (any, error)

// Middleware wraps a continuation with its own before/after behavior.
type Middleware interface {
	Wrap(next Next) Next
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc func(next Next) Next

// Wrap implements Middleware.
func (f MiddlewareFunc) Wrap(next Next) Next { return f(next) }

// Build composes mws around dispatcher in declared order: mws[0] is
// outermost. Rebuilding the chain never touches the dispatch table the
// dispatcher itself is drawn from, so handler registration survives
// middleware changes.
func Build(mws []Middleware, dispatcher Next) Next {
	chain := dispatcher
	for i := len(mws) - 1; i >= 0; i-- {
		chain = mws[i].Wrap(chain)
	}
	return chain
}
