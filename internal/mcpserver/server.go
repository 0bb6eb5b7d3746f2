// Package mcpserver wires the manifest registry, the content managers
// (tools, resources, prompts, completions), and the middleware chain
// into a running MCP server. It owns the full lifecycle: New loads
// plugins and connects the platform client, ServeStdio and Accept hand
// connections off to per-session runtimes, and Shutdown tears
// everything down in order.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MrWong99/guildmcp/internal/autocomplete"
	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/middleware"
	"github.com/MrWong99/guildmcp/internal/observe"
	"github.com/MrWong99/guildmcp/internal/platform"
	"github.com/MrWong99/guildmcp/internal/ratelimit"
	"github.com/MrWong99/guildmcp/internal/session"
	"github.com/MrWong99/guildmcp/internal/transport"
)

// defaultMaxConcurrentSessions bounds how many streamable-HTTP sessions
// Accept runs at once when the caller doesn't set WithMaxConcurrentSessions.
const defaultMaxConcurrentSessions = 256

// Server owns every subsystem a running guildmcp instance needs:
// the manifest registry, the three content managers, the middleware
// chain, the platform client, and the set of live sessions.
type Server struct {
	registry *manifest.Registry

	tools       *ToolManager
	resources   *ResourceManager
	prompts     *PromptManager
	completions *CompletionManager
	dispatcher  *Dispatcher

	chain     middleware.Next
	rateLimit *middleware.RateLimit // nil when WithMiddlewares supplied a custom stack
	platform  platform.Client
	logger    *slog.Logger
	sem       *semaphore.Weighted

	mu       sync.Mutex
	sessions map[string]sessionEntry

	closers  []func() error
	stopOnce sync.Once
}

// sessionEntry pairs a live session with the cancel func for the
// context it was built from, so Shutdown can end it without the
// session runtime needing to expose its own Close method.
type sessionEntry struct {
	session *session.Session
	cancel  context.CancelFunc
}

// Option is a functional option for New, used to inject test doubles or
// override the default middleware stack.
type Option func(*serverConfig)

type serverConfig struct {
	middlewares            []middleware.Middleware
	logger                 *slog.Logger
	maxConcurrentSessions  int64
	rateLimitDefaultRate   int
	rateLimitDefaultPeriod time.Duration
}

// WithRateLimitDefaults seeds the fleet-wide cooldown rate/period
// applied to a manifest that declares a cooldown algorithm but leaves
// Rate/Period at zero. Call [Server.SetRateLimitDefaults] to change it
// after construction (e.g. from a config hot-reload).
func WithRateLimitDefaults(rate int, period time.Duration) Option {
	return func(c *serverConfig) {
		c.rateLimitDefaultRate = rate
		c.rateLimitDefaultPeriod = period
	}
}

// WithMaxConcurrentSessions bounds how many sessions Accept will run at
// once; additional connections block in Accept until one finishes.
// Only meaningful for multi-session transports like StreamableHTTP.
func WithMaxConcurrentSessions(n int64) Option {
	return func(c *serverConfig) { c.maxConcurrentSessions = n }
}

// WithMiddlewares overrides the default Logging → DispatchMetrics →
// RateLimit → Checks stack. Middlewares are applied outermost-first, same order as given.
func WithMiddlewares(mws ...middleware.Middleware) Option {
	return func(c *serverConfig) { c.middlewares = mws }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serverConfig) { c.logger = logger }
}

// New constructs a Server: it drains every plugin's manifests into a
// fresh registry, builds the content managers and dispatcher, composes
// the middleware chain, and brings the platform client up through
// Login → Connect → WaitReady before returning.
func New(ctx context.Context, client platform.Client, plugins []manifest.Plugin, opts ...Option) (*Server, error) {
	cfg := &serverConfig{logger: slog.Default(), maxConcurrentSessions: defaultMaxConcurrentSessions}
	for _, o := range opts {
		o(cfg)
	}

	registry := manifest.NewRegistry()
	pluginMgr := manifest.NewManager()
	for _, p := range plugins {
		p.Register(pluginMgr)
		cfg.logger.Info("registered plugin", slog.String("plugin", p.Name()))
	}
	for _, m := range pluginMgr.Drain() {
		if err := registry.Add(m); err != nil {
			return nil, fmt.Errorf("mcpserver: register manifest %s: %w", m.Key(), err)
		}
	}

	tools := newToolManager(registry)
	resources := newResourceManager(registry)
	prompts := newPromptManager(registry)
	autoHandler := autocomplete.New(registry)
	completions := newCompletionManager(autoHandler)
	dispatcher := NewDispatcher(tools, resources, prompts, completions)

	var rateLimit *middleware.RateLimit
	mws := cfg.middlewares
	if mws == nil {
		rateLimit = middleware.NewRateLimit(registry)
		rateLimit.Defaults = ratelimit.NewDefaults(cfg.rateLimitDefaultRate, cfg.rateLimitDefaultPeriod)
		mws = []middleware.Middleware{
			middleware.NewLogging(cfg.logger),
			observe.NewDispatchMetrics(nil),
			rateLimit,
			middleware.NewChecks(registry),
		}
	}

	s := &Server{
		registry:    registry,
		tools:       tools,
		resources:   resources,
		prompts:     prompts,
		completions: completions,
		dispatcher:  dispatcher,
		chain:       middleware.Build(mws, dispatcher.Dispatch),
		rateLimit:   rateLimit,
		platform:    client,
		logger:      cfg.logger,
		sem:         semaphore.NewWeighted(cfg.maxConcurrentSessions),
		sessions:    make(map[string]sessionEntry),
	}

	if client != nil {
		if err := client.Login(ctx); err != nil {
			return nil, fmt.Errorf("mcpserver: platform login: %w", err)
		}
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("mcpserver: platform connect: %w", err)
		}
		if err := client.WaitReady(ctx); err != nil {
			return nil, fmt.Errorf("mcpserver: platform wait ready: %w", err)
		}
		s.closers = append(s.closers, client.Close)
	}

	return s, nil
}

// Registry exposes the manifest registry, mainly for tests and for
// built-in plugins that need to resolve a sibling manifest by hand.
func (s *Server) Registry() *manifest.Registry { return s.registry }

// SetRateLimitDefaults updates the fleet-wide cooldown rate/period
// applied to manifests that declare only an algorithm, taking effect on
// their next dispatch. It is a no-op, logged as a warning on every call,
// when the server was
// built with a custom middleware stack via WithMiddlewares, since there
// is then no well-known RateLimit instance to update.
func (s *Server) SetRateLimitDefaults(rate int, period time.Duration) {
	if s.rateLimit == nil || s.rateLimit.Defaults == nil {
		s.logger.Warn("rate limit defaults changed but no default middleware stack is active")
		return
	}
	s.rateLimit.Defaults.Set(rate, period)
}

// NewSession wraps conn in a Session wired to this server's middleware
// chain and collaborators, tracks it under id, and returns it without
// starting its read loop — callers call Run themselves so stdio and
// streamable-HTTP can each choose how to run it (foreground vs. one
// goroutine per HTTP-initiated session).
func (s *Server) NewSession(ctx context.Context, id string, conn transport.Connection) *session.Session {
	sessionCtx, cancel := context.WithCancel(ctx)
	sess := session.New(sessionCtx, session.Config{
		ID:        id,
		Conn:      conn,
		Chain:     s.chain,
		Resources: resourceReader{s.resources},
		Manifests: s.registry,
		Platform:  s.platform,
		Logger:    s.logger,
	})

	s.mu.Lock()
	s.sessions[id] = sessionEntry{session: sess, cancel: cancel}
	s.mu.Unlock()

	return sess
}

// endSession drops id from the live-session table. Session.Run does not
// call it; ServeStdio and Accept call it once Run returns.
func (s *Server) endSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// ServeStdio runs exactly one session over t until the connection
// closes, per [transport.Stdio]'s single-session contract.
func (s *Server) ServeStdio(ctx context.Context, t *transport.Stdio) error {
	conn, err := t.Connect(ctx)
	if err != nil {
		return fmt.Errorf("mcpserver: connect stdio transport: %w", err)
	}
	sess := s.NewSession(ctx, "stdio", conn)
	defer s.endSession("stdio")
	return sess.Run()
}

// Accept loops calling t.Connect, spawning one Session per connection
// it returns. Unlike ServeStdio it never returns on a single session
// ending — it's meant for a transport like [transport.StreamableHTTP]
// that yields a fresh connection per incoming client session. The
// number of sessions running at once is bounded by
// WithMaxConcurrentSessions; once the bound is reached Accept blocks
// before handing off the next connection. It returns only when ctx is
// cancelled or Connect itself errors.
func (s *Server) Accept(ctx context.Context, t transport.Transport, idPrefix string) error {
	var n int
	for {
		conn, err := t.Connect(ctx)
		if err != nil {
			return err
		}
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		n++
		id := fmt.Sprintf("%s-%d", idPrefix, n)
		sess := s.NewSession(ctx, id, conn)
		go func(id string) {
			defer s.sem.Release(1)
			defer s.endSession(id)
			if err := sess.Run(); err != nil {
				s.logger.Debug("session ended", slog.String("session_id", id), slog.Any("error", err))
			}
		}(id)
	}
}

// Shutdown closes every live session and runs closers (platform client
// teardown, etc.) in reverse registration order. Once ctx is done it
// stops before the next closer and returns ctx.Err(); the remaining
// closers do not run.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		entries := make([]sessionEntry, 0, len(s.sessions))
		for _, entry := range s.sessions {
			entries = append(entries, entry)
		}
		s.mu.Unlock()
		for _, entry := range entries {
			entry.cancel()
		}

		for i := len(s.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				s.logger.Warn("shutdown deadline exceeded", slog.Int("remaining", i+1))
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := s.closers[i](); err != nil {
				s.logger.Warn("closer error", slog.Int("index", i), slog.Any("error", err))
			}
		}
	})
	return shutdownErr
}

// resourceReader adapts a ResourceManager to reqcontext.ResourceReader
// so a tool or prompt callback can read a resource by URI without
// importing the mcpserver package.
type resourceReader struct {
	resources *ResourceManager
}

func (r resourceReader) ReadResource(ctx context.Context, uri string) ([]byte, string, error) {
	result, err := r.resources.Read(ctx, uri)
	if err != nil {
		return nil, "", err
	}
	if len(result.Contents) == 0 {
		return nil, "", fmt.Errorf("mcpserver: resource %q produced no content", uri)
	}
	contents := result.Contents[0]
	return []byte(contents.Text), contents.MimeType, nil
}
