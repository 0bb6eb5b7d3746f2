package middleware

import (
	"sync"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
	"github.com/MrWong99/guildmcp/internal/ratelimit"
)

// ManifestLookup is the narrow registry surface RateLimit and Checks
// need: resolve a manifest by kind and key.
type ManifestLookup interface {
	Get(kind manifest.Kind, key string) (*manifest.Manifest, bool)
}

// RateLimit looks up the manifest named by the dispatch context and, if
// it carries a cooldown, consumes one unit from its bucket. Denial
// raises RateLimitExceeded with the bucket stats embedded in Data.
// Ported from rate_limit.py's RateLimitMiddleware._process_rate_limit.
type RateLimit struct {
	Registry ManifestLookup

	// Defaults backfills Rate/Period on a manifest's cooldown when it
	// only declares an algorithm, and can be updated live (config
	// hot-reload). Nil means no fleet-wide default is configured.
	Defaults *ratelimit.Defaults

	mu       sync.Mutex
	managers map[*manifest.Manifest]*cooldownEntry
}

// cooldownEntry pairs a built Manager with the Defaults generation it
// was built from, so managerFor can tell a manifest relying on the
// fleet-wide default apart from one needing a rebuild after Defaults.Set.
type cooldownEntry struct {
	mgr             *ratelimit.Manager
	defaultsVersion uint64
}

func NewRateLimit(registry ManifestLookup) *RateLimit {
	return &RateLimit{Registry: registry, managers: make(map[*manifest.Manifest]*cooldownEntry)}
}

// managerFor returns the one CooldownManager backing m's rate limit,
// creating it on first use. One manager per manifest so bucket state
// persists across dispatches instead of resetting every call. A
// manifest whose cooldown relies on Defaults gets a fresh Manager (and
// a reset bucket) the next time it's dispatched after Defaults.Set.
func (r *RateLimit) managerFor(m *manifest.Manifest) *ratelimit.Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := *m.Cooldown
	var usesDefaults bool
	var version uint64
	if r.Defaults != nil {
		cfg, version = r.Defaults.Apply(cfg)
		usesDefaults = version != 0 || (cfg.Rate == 0 && cfg.Period == 0)
	}

	if entry, ok := r.managers[m]; ok {
		if !usesDefaults || entry.defaultsVersion == version {
			return entry.mgr
		}
	}

	mgr := ratelimit.NewManager(cfg)
	r.managers[m] = &cooldownEntry{mgr: mgr, defaultsVersion: version}
	return mgr
}

func (r *RateLimit) Wrap(next Next) Next {
	return func(ctx *Context) (any, error) {
		if !ctx.HasManifest {
			return next(ctx)
		}
		m, ok := r.Registry.Get(ctx.ManifestKind, ctx.ManifestKey)
		if !ok || !m.Enabled || m.Cooldown == nil {
			return next(ctx)
		}
		mgr := r.managerFor(m)
		if !mgr.Update(ctx.Context, 1) {
			stats := mgr.Bucket(ctx.Context).Stats()
			return nil, mcperr.New(mcperr.RateLimitExceeded, "rate limit exceeded for %s on %s", ctx.Method, ctx.ManifestKey).WithData(stats)
		}
		return next(ctx)
	}
}
