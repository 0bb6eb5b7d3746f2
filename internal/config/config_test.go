package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/guildmcp/internal/config"
)

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info
  transport: streamable-http
  path: /mcp

discord:
  token: xoxo-placeholder

event_store:
  driver: sqlite
  dsn: /var/lib/guildmcp/events.db

rate_limit:
  default_rate: 5
  default_period: 1m
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogLevelInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogLevelInfo)
	}
	if cfg.Server.Transport != config.TransportStreamableHTTP {
		t.Errorf("server.transport: got %q, want %q", cfg.Server.Transport, config.TransportStreamableHTTP)
	}
	if cfg.Server.Path != "/mcp" {
		t.Errorf("server.path: got %q, want %q", cfg.Server.Path, "/mcp")
	}
	if cfg.Discord.Token != "xoxo-placeholder" {
		t.Errorf("discord.token: got %q", cfg.Discord.Token)
	}
	if cfg.EventStore.Driver != config.EventStoreSQLite {
		t.Errorf("event_store.driver: got %q, want %q", cfg.EventStore.Driver, config.EventStoreSQLite)
	}
	if cfg.EventStore.DSN != "/var/lib/guildmcp/events.db" {
		t.Errorf("event_store.dsn: got %q", cfg.EventStore.DSN)
	}
	if cfg.RateLimit.DefaultRate != 5 {
		t.Errorf("rate_limit.default_rate: got %d, want 5", cfg.RateLimit.DefaultRate)
	}
	if cfg.RateLimit.DefaultPeriod != time.Minute {
		t.Errorf("rate_limit.default_period: got %s, want 1m", cfg.RateLimit.DefaultPeriod)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	// Defaults applied even for an empty document.
	if cfg.Server.Path != "/mcp" {
		t.Errorf("server.path default: got %q, want /mcp", cfg.Server.Path)
	}
	if cfg.EventStore.Driver != config.EventStoreMemory {
		t.Errorf("event_store.driver default: got %q, want memory", cfg.EventStore.Driver)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := `
server:
  log_level: info
bogus_section: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_InvalidTransport(t *testing.T) {
	yaml := `
server:
  transport: grpc
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid transport, got nil")
	}
	if !strings.Contains(err.Error(), "transport") {
		t.Errorf("error should mention transport, got: %v", err)
	}
}

func TestValidate_StreamableHTTPRequiresListenAddr(t *testing.T) {
	yaml := `
server:
  transport: streamable-http
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing listen_addr, got nil")
	}
	if !strings.Contains(err.Error(), "listen_addr") {
		t.Errorf("error should mention listen_addr, got: %v", err)
	}
}

func TestValidate_InvalidEventStoreDriver(t *testing.T) {
	yaml := `
event_store:
  driver: postgres
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid event_store.driver, got nil")
	}
	if !strings.Contains(err.Error(), "driver") {
		t.Errorf("error should mention driver, got: %v", err)
	}
}

func TestValidate_SQLiteRequiresDSN(t *testing.T) {
	yaml := `
event_store:
  driver: sqlite
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing dsn, got nil")
	}
	if !strings.Contains(err.Error(), "dsn") {
		t.Errorf("error should mention dsn, got: %v", err)
	}
}

func TestValidate_NegativeRateLimitFields(t *testing.T) {
	yaml := `
rate_limit:
  default_rate: -1
  default_period: -1s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative rate limit fields, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "default_rate") {
		t.Errorf("error should mention default_rate, got: %v", err)
	}
	if !strings.Contains(errStr, "default_period") {
		t.Errorf("error should mention default_period, got: %v", err)
	}
}
