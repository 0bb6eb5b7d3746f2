package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Server.Path == "" {
		cfg.Server.Path = "/mcp"
	}
	if cfg.EventStore.Driver == "" {
		cfg.EventStore.Driver = EventStoreMemory
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It
// returns a joined error listing every validation failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.Transport != "" && !cfg.Server.Transport.IsValid() {
		errs = append(errs, fmt.Errorf("server.transport %q is invalid; valid values: stdio, streamable-http", cfg.Server.Transport))
	}
	if cfg.Server.Transport == TransportStreamableHTTP && cfg.Server.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("server.listen_addr is required when transport is streamable-http"))
	}

	if cfg.EventStore.Driver != "" && !cfg.EventStore.Driver.IsValid() {
		errs = append(errs, fmt.Errorf("event_store.driver %q is invalid; valid values: memory, sqlite", cfg.EventStore.Driver))
	}
	if cfg.EventStore.Driver == EventStoreSQLite && cfg.EventStore.DSN == "" {
		errs = append(errs, fmt.Errorf("event_store.dsn is required when driver is sqlite"))
	}

	if cfg.RateLimit.DefaultRate < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.default_rate must be >= 0, got %d", cfg.RateLimit.DefaultRate))
	}
	if cfg.RateLimit.DefaultPeriod < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.default_period must be >= 0, got %s", cfg.RateLimit.DefaultPeriod))
	}

	return errors.Join(errs...)
}
