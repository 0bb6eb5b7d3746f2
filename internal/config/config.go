// Package config provides the configuration schema, loader, and
// environment overrides for guildmcp.
package config

import "time"

// Config is the root configuration structure for guildmcp. It is
// typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Discord    DiscordConfig    `yaml:"discord"`
	EventStore EventStoreConfig `yaml:"event_store"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// ServerConfig holds the transport and logging settings for the
// running MCP server.
type ServerConfig struct {
	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`

	// Transport selects how the server accepts connections.
	Transport Transport `yaml:"transport"`

	// ListenAddr is the TCP address the streamable-HTTP transport binds
	// to (e.g. ":8080"). Ignored when Transport is "stdio".
	ListenAddr string `yaml:"listen_addr"`

	// Path is the HTTP path the streamable-HTTP endpoint is registered
	// under. Defaults to "/mcp" when empty.
	Path string `yaml:"path"`
}

// LogLevel is a validated slog level name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Transport selects the connection mechanism the server listens on.
type Transport string

const (
	// TransportStdio serves exactly one session over the process's
	// standard input and output.
	TransportStdio Transport = "stdio"

	// TransportStreamableHTTP serves the MCP streamable-HTTP protocol.
	TransportStreamableHTTP Transport = "streamable-http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportStreamableHTTP
}

// DiscordConfig holds the Discord bot credential. Token is normally
// left empty in the file and supplied via the DISCORD_TOKEN
// environment variable instead; see [Environment].
type DiscordConfig struct {
	Token string `yaml:"token"`
}

// EventStoreConfig selects the event-store adapter backing HTTP
// session resumption.
type EventStoreConfig struct {
	// Driver selects the adapter. Valid values: "memory", "sqlite".
	Driver EventStoreDriver `yaml:"driver"`

	// DSN is the sqlite database path, ignored when Driver is "memory".
	DSN string `yaml:"dsn"`
}

// EventStoreDriver selects an event-store adapter.
type EventStoreDriver string

const (
	EventStoreMemory EventStoreDriver = "memory"
	EventStoreSQLite EventStoreDriver = "sqlite"
)

// IsValid reports whether d is a recognised event-store driver.
func (d EventStoreDriver) IsValid() bool {
	return d == EventStoreMemory || d == EventStoreSQLite
}

// RateLimitConfig carries the default cooldown applied to a manifest
// that declares a cooldown algorithm but leaves rate/period at their
// zero value, letting an operator set one fleet-wide default instead
// of repeating it on every plugin manifest.
type RateLimitConfig struct {
	DefaultRate   int           `yaml:"default_rate"`
	DefaultPeriod time.Duration `yaml:"default_period"`
}
