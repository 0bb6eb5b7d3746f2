// Package discord implements platform.Client against a real Discord
// gateway connection via discordgo. It owns the discordgo.Session
// lifecycle; every other package talks to Discord only through
// platform.Client.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/guildmcp/internal/platform"
)

// Config holds the Discord bot credentials and intents needed to open
// a gateway connection.
type Config struct {
	// Token is the Discord bot token, without the "Bot " prefix.
	Token string `yaml:"token"`
}

// Client is a platform.Client backed by a discordgo.Session.
type Client struct {
	token string

	mu      sync.RWMutex
	session *discordgo.Session

	ready     chan struct{}
	readyOnce sync.Once
}

// New returns a Client that has not yet authenticated; call Login then
// Connect then WaitReady before using any accessor.
func New(cfg Config) *Client {
	return &Client{token: cfg.Token, ready: make(chan struct{})}
}

// Login creates the underlying discordgo.Session and sets the intents
// the built-in tools need: guild membership, guild messages, and guild
// state, but no message content (the server reads messages through the
// REST API on demand, it does not need the gateway to push content).
func (c *Client) Login(ctx context.Context) error {
	session, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages

	session.AddHandler(func(*discordgo.Session, *discordgo.Ready) {
		c.readyOnce.Do(func() { close(c.ready) })
	})

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return nil
}

// Connect opens the gateway connection. discordgo runs its event loop
// on background goroutines, so Connect returns as soon as the
// handshake is underway; callers wanting the initial cache populated
// must call WaitReady.
func (c *Client) Connect(ctx context.Context) error {
	session := c.sessionOrPanic()
	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	return nil
}

// WaitReady blocks until the gateway's Ready event has been received,
// or ctx is cancelled first.
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the gateway connection.
func (c *Client) Close() error {
	session := c.sessionOrPanic()
	if err := session.Close(); err != nil {
		return fmt.Errorf("discord: close session: %w", err)
	}
	slog.Info("discord client closed")
	return nil
}

func (c *Client) sessionOrPanic() *discordgo.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		panic("discord: Client used before Login")
	}
	return c.session
}

func (c *Client) Guild(ctx context.Context, guildID string) (*platform.Guild, error) {
	session := c.sessionOrPanic()
	if cached, err := session.State.Guild(guildID); err == nil {
		return convertGuild(cached), nil
	}
	g, err := session.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("discord: get guild %s: %w", guildID, err)
	}
	return convertGuild(g), nil
}

func (c *Client) Channel(ctx context.Context, channelID string) (*platform.Channel, error) {
	session := c.sessionOrPanic()
	if cached, err := session.State.Channel(channelID); err == nil {
		return convertChannel(cached), nil
	}
	ch, err := session.Channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("discord: get channel %s: %w", channelID, err)
	}
	return convertChannel(ch), nil
}

func (c *Client) User(ctx context.Context, userID string) (*platform.User, error) {
	session := c.sessionOrPanic()
	u, err := session.User(userID)
	if err != nil {
		return nil, fmt.Errorf("discord: get user %s: %w", userID, err)
	}
	return convertUser(u), nil
}

func (c *Client) Member(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	session := c.sessionOrPanic()
	if cached, err := session.State.Member(guildID, userID); err == nil {
		return convertMember(cached), nil
	}
	m, err := session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("discord: get member %s in guild %s: %w", userID, guildID, err)
	}
	return convertMember(m), nil
}

func (c *Client) Roles(ctx context.Context, guildID string) ([]*platform.Role, error) {
	session := c.sessionOrPanic()
	roles, err := session.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("discord: list roles for guild %s: %w", guildID, err)
	}
	out := make([]*platform.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, convertRole(r))
	}
	return out, nil
}

func (c *Client) Channels(ctx context.Context, guildID string) ([]*platform.Channel, error) {
	session := c.sessionOrPanic()
	channels, err := session.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("discord: list channels for guild %s: %w", guildID, err)
	}
	out := make([]*platform.Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, convertChannel(ch))
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string) (*platform.Message, error) {
	session := c.sessionOrPanic()
	msg, err := session.ChannelMessageSend(channelID, content)
	if err != nil {
		return nil, fmt.Errorf("discord: send message to channel %s: %w", channelID, err)
	}
	return convertMessage(msg), nil
}

func (c *Client) Messages(ctx context.Context, channelID string, limit int) ([]*platform.Message, error) {
	session := c.sessionOrPanic()
	messages, err := session.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return nil, fmt.Errorf("discord: list messages for channel %s: %w", channelID, err)
	}
	out := make([]*platform.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, convertMessage(m))
	}
	return out, nil
}

var _ platform.Client = (*Client)(nil)
