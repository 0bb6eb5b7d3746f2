package middleware

import (
	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// Checks runs a manifest's ordered predicates before dispatch, raising
// CheckFailure naming the first one that returns an error. Ported from
// the reference implementation's check-stacking decorator, collapsed
// into the same manifest lookup RateLimit performs.
type Checks struct {
	Registry ManifestLookup
}

func NewChecks(registry ManifestLookup) *Checks {
	return &Checks{Registry: registry}
}

func (c *Checks) Wrap(next Next) Next {
	return func(ctx *Context) (any, error) {
		if !ctx.HasManifest {
			return next(ctx)
		}
		m, ok := c.Registry.Get(ctx.ManifestKind, ctx.ManifestKey)
		if !ok || !m.Enabled {
			return next(ctx)
		}
		for _, check := range m.Checks {
			if err := check(ctx.Context); err != nil {
				return nil, mcperr.Wrap(mcperr.CheckFailure, err, "check failed for %s on %s", ctx.Method, ctx.ManifestKey)
			}
		}
		return next(ctx)
	}
}
