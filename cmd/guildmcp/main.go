// Command guildmcp is the main entry point for the guildmcp MCP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/guildmcp/internal/config"
	"github.com/MrWong99/guildmcp/internal/eventstore"
	"github.com/MrWong99/guildmcp/internal/eventstore/memstore"
	"github.com/MrWong99/guildmcp/internal/eventstore/sqlstore"
	"github.com/MrWong99/guildmcp/internal/health"
	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcpserver"
	"github.com/MrWong99/guildmcp/internal/observe"
	"github.com/MrWong99/guildmcp/internal/platform/discord"
	"github.com/MrWong99/guildmcp/internal/plugins/discordtools"
	"github.com/MrWong99/guildmcp/internal/transport"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	transportFlag := flag.String("transport", "", "override server.transport from the config file (stdio, streamable-http)")
	addrFlag := flag.String("addr", "", "override server.listen_addr from the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "guildmcp: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "guildmcp: %v\n", err)
		}
		return 1
	}
	if *transportFlag != "" {
		cfg.Server.Transport = config.Transport(*transportFlag)
	}
	if *addrFlag != "" {
		cfg.Server.ListenAddr = *addrFlag
	}

	env, err := config.LoadEnvironment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "guildmcp: %v\n", err)
		return 1
	}
	cfg.Discord.Token = env.DiscordToken
	if env.ListenAddr != "" {
		cfg.Server.ListenAddr = env.ListenAddr
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "guildmcp: %v\n", err)
		return 1
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(toSlogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)

	shutdownTelemetry, err := observe.InitProvider(context.Background(), observe.ProviderConfig{ServiceName: "guildmcp"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	store, err := buildEventStore(cfg.EventStore)
	if err != nil {
		slog.Error("failed to open event store", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plugins := []manifest.Plugin{discordtools.New()}
	srv, err := mcpserver.New(ctx, discord.New(discord.Config{Token: cfg.Discord.Token}), plugins,
		mcpserver.WithLogger(logger),
		mcpserver.WithRateLimitDefaults(cfg.RateLimit.DefaultRate, cfg.RateLimit.DefaultPeriod),
	)
	if err != nil {
		slog.Error("failed to initialise server", "err", err)
		return 1
	}

	watcher, err := config.NewWatcher(*configPath, func(old, updated *config.Config) {
		diff := config.Diff(old, updated)
		if diff.LogLevelChanged {
			levelVar.Set(toSlogLevel(diff.NewLogLevel))
			slog.Info("log level changed via config reload", "level", diff.NewLogLevel)
		}
		if diff.RateLimitChanged {
			srv.SetRateLimitDefaults(diff.NewRateLimit.DefaultRate, diff.NewRateLimit.DefaultPeriod)
			slog.Info("rate limit defaults changed via config reload",
				"rate", diff.NewRateLimit.DefaultRate, "period", diff.NewRateLimit.DefaultPeriod)
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	slog.Info("guildmcp starting",
		"config", *configPath,
		"transport", cfg.Server.Transport,
		"listen_addr", cfg.Server.ListenAddr,
	)

	g, gctx := errgroup.WithContext(ctx)
	switch cfg.Server.Transport {
	case config.TransportStreamableHTTP:
		httpServer := runStreamableHTTP(g, gctx, srv, store, cfg)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	default:
		stdio := transport.NewStdio(os.Stdin, os.Stdout)
		g.Go(func() error { return srv.ServeStdio(gctx, stdio) })
	}

	slog.Info("server ready")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("run error", "err", err)
	}

	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// runStreamableHTTP registers the MCP endpoint, Prometheus /metrics, and
// health-check routes on one mux, starts the accept loop and the HTTP
// listener as sibling tasks under g, and returns the *http.Server so the
// caller can shut it down once g's context is cancelled.
func runStreamableHTTP(g *errgroup.Group, ctx context.Context, srv *mcpserver.Server, store eventstore.Store, cfg *config.Config) *http.Server {
	t := transport.NewStreamableHTTP(store)

	mux := http.NewServeMux()
	t.Register(mux, cfg.Server.Path)
	mux.Handle("/metrics", promhttp.Handler())
	healthHandler := health.New()
	mux.HandleFunc("/healthz", healthHandler.Healthz)
	mux.HandleFunc("/readyz", healthHandler.Readyz)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.HTTPMiddleware(observe.DefaultMetrics())(mux),
	}

	g.Go(func() error {
		return srv.Accept(ctx, t, "http")
	})
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return httpServer
}

func buildEventStore(cfg config.EventStoreConfig) (eventstore.Store, error) {
	if cfg.Driver == config.EventStoreSQLite {
		return sqlstore.Open(cfg.DSN)
	}
	return memstore.New(), nil
}

func toSlogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
