package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sessionIDKey is the context key the default bucket-key policy reads.
// Transports that carry an HTTP session id must store it here via
// [ContextWithSessionID] before dispatching into the middleware chain.
type sessionIDKey struct{}

// ContextWithSessionID returns a context carrying id as the current
// session id, for consumption by [DefaultBucketKey].
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session id stored by
// [ContextWithSessionID], and whether one was present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok
}

// BucketKeyFunc derives a rate-limit bucket key from a request context.
type BucketKeyFunc func(ctx context.Context) string

// DefaultBucketKey implements the default policy from spec §3: the HTTP
// session id if present, else the literal "global".
func DefaultBucketKey(ctx context.Context) string {
	if id, ok := SessionIDFromContext(ctx); ok && id != "" {
		return id
	}
	return "global"
}

// Config describes one cooldown: an algorithm/rate/period prototype plus
// the function used to derive per-request bucket keys.
type Config struct {
	Algorithm Algorithm
	Rate      int
	Period    time.Duration
	BucketKey BucketKeyFunc
}

// Manager lazily owns one [Limiter] per bucket key, constructed from a
// shared prototype. Ported from the reference CooldownManager: every
// Update call first prunes buckets idle for more than one period.
type Manager struct {
	prototype Limiter
	bucketKey BucketKeyFunc

	mu      sync.Mutex
	buckets map[string]Limiter
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config) *Manager {
	keyFn := cfg.BucketKey
	if keyFn == nil {
		keyFn = DefaultBucketKey
	}
	return &Manager{
		prototype: New(cfg.Algorithm, cfg.Rate, cfg.Period),
		bucketKey: keyFn,
		buckets:   make(map[string]Limiter),
	}
}

// prune drops buckets that have not been used for a full period.
// Caller must hold m.mu.
func (m *Manager) prune() {
	now := time.Now()
	for key, limiter := range m.buckets {
		stats := limiter.Stats()
		if now.After(stats.LastRequest.Add(limiter.Period())) {
			delete(m.buckets, key)
		}
	}
}

// Bucket returns the limiter for ctx's bucket key, constructing one from
// the prototype on first use.
func (m *Manager) Bucket(ctx context.Context) Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune()
	key := m.bucketKey(ctx)
	limiter, ok := m.buckets[key]
	if !ok {
		limiter = m.prototype.Copy()
		m.buckets[key] = limiter
	}
	return limiter
}

// Update attempts to consume amount units from ctx's bucket, reporting
// whether the request is allowed.
func (m *Manager) Update(ctx context.Context, amount int) bool {
	return m.Bucket(ctx).Consume(amount)
}

// Defaults holds the fleet-wide rate/period applied to a manifest's
// cooldown when it declares only an algorithm and leaves Rate/Period at
// zero, letting an operator set one value for every such manifest
// instead of repeating it per plugin. It is safe for concurrent use so
// a config hot-reload can call Set while requests are being rate
// limited.
type Defaults struct {
	mu      sync.RWMutex
	rate    int
	period  time.Duration
	version uint64
}

// NewDefaults returns a Defaults seeded with rate and period.
func NewDefaults(rate int, period time.Duration) *Defaults {
	return &Defaults{rate: rate, period: period}
}

// Set updates the fleet-wide default rate and period and bumps Version,
// so a caller caching an Apply result knows to rebuild it.
func (d *Defaults) Set(rate int, period time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rate, d.period = rate, period
	d.version++
}

// Get returns the current fleet-wide default rate and period.
func (d *Defaults) Get() (int, time.Duration) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rate, d.period
}

// Version returns the current generation of the defaults; it changes
// every time Set is called.
func (d *Defaults) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Apply returns cfg with Rate and Period backfilled from d when cfg
// declares neither (both zero), leaving an explicit per-manifest
// Rate/Period untouched, plus the Defaults generation the backfill was
// made from (0 when cfg didn't need backfilling, so a caller can tell
// whether it needs to track Version for a future rebuild).
func (d *Defaults) Apply(cfg Config) (Config, uint64) {
	if cfg.Rate != 0 || cfg.Period != 0 {
		return cfg, 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	cfg.Rate, cfg.Period = d.rate, d.period
	return cfg, d.version
}
