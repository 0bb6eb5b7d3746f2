package config_test

import (
	"testing"
	"time"

	"github.com/MrWong99/guildmcp/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server:    config.ServerConfig{LogLevel: config.LogLevelInfo},
		RateLimit: config.RateLimitConfig{DefaultRate: 5, DefaultPeriod: time.Minute},
	}
	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.RateLimitChanged {
		t.Error("expected RateLimitChanged=false for identical configs")
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogLevelInfo}}
	newCfg := &config.Config{Server: config.ServerConfig{LogLevel: config.LogLevelDebug}}

	d := config.Diff(old, newCfg)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogLevelDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_RateLimitChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{RateLimit: config.RateLimitConfig{DefaultRate: 5, DefaultPeriod: time.Minute}}
	newCfg := &config.Config{RateLimit: config.RateLimitConfig{DefaultRate: 10, DefaultPeriod: time.Minute}}

	d := config.Diff(old, newCfg)
	if !d.RateLimitChanged {
		t.Error("expected RateLimitChanged=true")
	}
	if d.NewRateLimit.DefaultRate != 10 {
		t.Errorf("expected NewRateLimit.DefaultRate=10, got %d", d.NewRateLimit.DefaultRate)
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Server:    config.ServerConfig{LogLevel: config.LogLevelInfo},
		RateLimit: config.RateLimitConfig{DefaultRate: 5, DefaultPeriod: time.Minute},
	}
	newCfg := &config.Config{
		Server:    config.ServerConfig{LogLevel: config.LogLevelWarn},
		RateLimit: config.RateLimitConfig{DefaultRate: 1, DefaultPeriod: 30 * time.Second},
	}

	d := config.Diff(old, newCfg)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if !d.RateLimitChanged {
		t.Error("expected RateLimitChanged=true")
	}
	if d.NewLogLevel != config.LogLevelWarn {
		t.Errorf("expected NewLogLevel=warn, got %q", d.NewLogLevel)
	}
}

func TestDiff_DiscordTokenNotTracked(t *testing.T) {
	t.Parallel()
	// Diff deliberately ignores Discord.Token and ListenAddr since those
	// require a restart rather than a hot-applied update.
	old := &config.Config{Discord: config.DiscordConfig{Token: "old"}}
	newCfg := &config.Config{Discord: config.DiscordConfig{Token: "new"}}

	d := config.Diff(old, newCfg)
	if d.LogLevelChanged || d.RateLimitChanged {
		t.Error("expected no changes reported for a Discord token change alone")
	}
}
