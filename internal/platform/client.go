// Package platform declares the chat-platform collaborator every
// request context and tool callback talks through, plus the minimal set
// of value types needed to exercise it. The platform connection itself
// (login, gateway, reconnect) lives one level down in
// internal/platform/discord; this package only fixes the contract so
// the rest of the server never imports discordgo directly.
package platform

import "context"

// Guild mirrors the fields of a discordgo.Guild actually consumed by
// the built-in tools: identity, display name, and owner.
type Guild struct {
	ID      string
	Name    string
	OwnerID string
}

// Channel mirrors a discordgo.Channel.
type Channel struct {
	ID      string
	GuildID string
	Name    string
	Topic   string
	Type    int
}

// User mirrors a discordgo.User.
type User struct {
	ID            string
	Username      string
	Discriminator string
	Bot           bool
}

// Member mirrors a discordgo.Member: a User scoped to one guild plus
// guild-specific fields.
type Member struct {
	User     User
	GuildID  string
	Nick     string
	RoleIDs  []string
}

// Role mirrors a discordgo.Role.
type Role struct {
	ID    string
	Name  string
	Color int
}

// Message mirrors a discordgo.Message, trimmed to what the built-in
// tools read or produce.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
}

// Client is the platform-client surface every request context exposes.
// The server owns exactly one Client instance, constructed during
// lifespan entry and shared read-only by every session.
type Client interface {
	// Login sets the client up with its credentials. It does not open
	// the platform connection; Connect does.
	Login(ctx context.Context) error

	// Connect starts the platform client's background event loop. It
	// runs as a sibling task for the life of the process.
	Connect(ctx context.Context) error

	// WaitReady blocks until the platform connection has finished its
	// initial handshake (guild cache populated, gateway ready event
	// received).
	WaitReady(ctx context.Context) error

	// Close tears down the platform connection.
	Close() error

	Guild(ctx context.Context, guildID string) (*Guild, error)
	Channel(ctx context.Context, channelID string) (*Channel, error)
	User(ctx context.Context, userID string) (*User, error)
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	Roles(ctx context.Context, guildID string) ([]*Role, error)
	Channels(ctx context.Context, guildID string) ([]*Channel, error)
	SendMessage(ctx context.Context, channelID, content string) (*Message, error)
	Messages(ctx context.Context, channelID string, limit int) ([]*Message, error)
}
