// Package discordtools is the reference built-in plugin: a small set of
// Discord tools, resources, and a prompt registered through the same
// [manifest.Plugin] entrypoint any third-party plugin uses. It exists
// to exercise the registry, schema, check, and cooldown machinery
// end-to-end, not to be a complete Discord API surface.
package discordtools

import (
	"context"
	"fmt"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
	"github.com/MrWong99/guildmcp/internal/platform"
	"github.com/MrWong99/guildmcp/internal/reqcontext"
	"github.com/MrWong99/guildmcp/internal/schema"
)

// Plugin registers the Discord tool/resource/prompt set.
type Plugin struct{}

// New returns the discordtools plugin.
func New() *Plugin { return &Plugin{} }

// Name identifies the plugin in startup logs.
func (p *Plugin) Name() string { return "discordtools" }

// Register contributes every tool, resource, and prompt manifest to mgr.
func (p *Plugin) Register(mgr *manifest.Manager) {
	registerTools(mgr)
	registerResources(mgr)
	registerPrompt(mgr)
}

// mustInvoker panics when schema reflection fails. Argument struct
// shapes are fixed at compile time, so a failure here is a programming
// error in this package, never a runtime condition — the same
// contract as regexp.MustCompile for a package-level pattern.
func mustInvoker[TArgs any](name string, fn schema.Handler[TArgs]) manifest.Invoker {
	adapter, err := schema.New(fn)
	if err != nil {
		panic(fmt.Sprintf("discordtools: %s: %v", name, err))
	}
	return adapter
}

// platformClient resolves the request's platform client. Every handler
// in this package only ever runs inside a live request, so a missing
// [reqcontext.Context] or nil client is an internal wiring bug rather
// than a client-facing error.
func platformClient(ctx context.Context) (platform.Client, error) {
	rc, ok := reqcontext.FromContext(ctx)
	if !ok {
		return nil, mcperr.New(mcperr.Internal, "discordtools: handler invoked outside a request")
	}
	return rc.Platform()
}
