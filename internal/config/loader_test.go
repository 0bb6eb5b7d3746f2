package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/guildmcp/internal/config"
)

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/guildmcp-config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestValidate_MultipleErrorsJoined(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: bananas
  transport: streamable-http
event_store:
  driver: sqlite
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
	if !strings.Contains(errStr, "listen_addr") {
		t.Errorf("error should mention listen_addr, got: %v", err)
	}
	if !strings.Contains(errStr, "dsn") {
		t.Errorf("error should mention dsn, got: %v", err)
	}
}

func TestValidate_DefaultEventStoreDriverIsMemory(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(`server:
  log_level: info
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EventStore.Driver != config.EventStoreMemory {
		t.Errorf("event_store.driver: got %q, want %q", cfg.EventStore.Driver, config.EventStoreMemory)
	}
}

func TestValidate_StdioTransportDoesNotRequireListenAddr(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`server:
  transport: stdio
`))
	if err != nil {
		t.Fatalf("unexpected error for stdio transport without listen_addr: %v", err)
	}
}
