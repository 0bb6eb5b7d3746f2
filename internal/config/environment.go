package config

import (
	"fmt"
	"os"
)

// Environment holds the secrets and per-deployment overrides that
// never belong in a checked-in YAML file.
type Environment struct {
	// DiscordToken is the bot token used to authenticate the gateway
	// connection. Required.
	DiscordToken string

	// ListenAddr overrides Config.Server.ListenAddr when set.
	ListenAddr string
}

// LoadEnvironment reads guildmcp's environment variables. DISCORD_TOKEN
// is required; GUILDMCP_LISTEN_ADDR is an optional override applied by
// the caller over whatever Config.Server.ListenAddr the YAML file set.
func LoadEnvironment() (*Environment, error) {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("config: DISCORD_TOKEN environment variable is required")
	}
	return &Environment{
		DiscordToken: token,
		ListenAddr:   os.Getenv("GUILDMCP_LISTEN_ADDR"),
	}, nil
}

// Apply overlays env's overrides onto cfg in place.
func (env *Environment) Apply(cfg *Config) {
	cfg.Discord.Token = env.DiscordToken
	if env.ListenAddr != "" {
		cfg.Server.ListenAddr = env.ListenAddr
	}
}
