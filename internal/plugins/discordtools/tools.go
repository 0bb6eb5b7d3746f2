package discordtools

import (
	"context"
	"time"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
	"github.com/MrWong99/guildmcp/internal/ratelimit"
)

func registerTools(mgr *manifest.Manager) {
	mgr.Tool("list_guild_channels",
		mustInvoker("list_guild_channels", listGuildChannels),
		manifest.WithTitle("List guild channels"),
		manifest.WithDescription("Lists every channel in a Discord guild."),
		manifest.WithAnnotations(manifest.ToolAnnotations{ReadOnlyHint: true}),
	)

	mgr.Tool("list_guild_roles",
		mustInvoker("list_guild_roles", listGuildRoles),
		manifest.WithTitle("List guild roles"),
		manifest.WithDescription("Lists every role defined in a Discord guild."),
		manifest.WithAnnotations(manifest.ToolAnnotations{ReadOnlyHint: true}),
	)

	mgr.Tool("get_member",
		mustInvoker("get_member", getMember),
		manifest.WithTitle("Get guild member"),
		manifest.WithDescription("Looks up one member of a Discord guild by user ID."),
		manifest.WithAnnotations(manifest.ToolAnnotations{ReadOnlyHint: true}),
	)

	// FixedWindow(rate=1, period=60s): at most one message per bucket key
	// per minute, the worked cooldown example.
	mgr.Tool("send_message",
		mustInvoker("send_message", sendMessage),
		manifest.WithTitle("Send message"),
		manifest.WithDescription("Posts a message to a Discord channel. Limited to one call per minute per session."),
		manifest.WithAnnotations(manifest.ToolAnnotations{DestructiveHint: true}),
		manifest.WithCooldown(ratelimit.Config{
			Algorithm: ratelimit.FixedWindow,
			Rate:      1,
			Period:    60 * time.Second,
		}),
	)

	mgr.Tool("list_recent_messages",
		mustInvoker("list_recent_messages", listRecentMessages),
		manifest.WithTitle("List recent messages"),
		manifest.WithDescription("Lists the most recent messages posted to a Discord channel."),
		manifest.WithAnnotations(manifest.ToolAnnotations{ReadOnlyHint: true}),
	)
}

// ListGuildChannelsArgs is list_guild_channels' parameter struct.
type ListGuildChannelsArgs struct {
	GuildID string `json:"guild_id" desc:"Discord guild (server) ID"`
}

func listGuildChannels(ctx context.Context, args ListGuildChannelsArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := client.Channels(ctx, args.GuildID)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Internal, err, "list channels for guild %s", args.GuildID)
	}
	return channels, nil
}

// ListGuildRolesArgs is list_guild_roles' parameter struct.
type ListGuildRolesArgs struct {
	GuildID string `json:"guild_id" desc:"Discord guild (server) ID"`
}

func listGuildRoles(ctx context.Context, args ListGuildRolesArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := client.Roles(ctx, args.GuildID)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Internal, err, "list roles for guild %s", args.GuildID)
	}
	return roles, nil
}

// GetMemberArgs is get_member's parameter struct.
type GetMemberArgs struct {
	GuildID string `json:"guild_id" desc:"Discord guild (server) ID"`
	UserID  string `json:"user_id" desc:"Discord user ID"`
}

func getMember(ctx context.Context, args GetMemberArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	member, err := client.Member(ctx, args.GuildID, args.UserID)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Internal, err, "get member %s in guild %s", args.UserID, args.GuildID)
	}
	return member, nil
}

// SendMessageArgs is send_message's parameter struct.
type SendMessageArgs struct {
	ChannelID string `json:"channel_id" desc:"Discord channel ID to post to"`
	Content   string `json:"content" desc:"Message body"`
}

func sendMessage(ctx context.Context, args SendMessageArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := client.SendMessage(ctx, args.ChannelID, args.Content)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Internal, err, "send message to channel %s", args.ChannelID)
	}
	return msg, nil
}

// ListRecentMessagesArgs is list_recent_messages' parameter struct.
type ListRecentMessagesArgs struct {
	ChannelID string `json:"channel_id" desc:"Discord channel ID"`
	Limit     int    `json:"limit" desc:"Maximum number of messages to return"`
}

func listRecentMessages(ctx context.Context, args ListRecentMessagesArgs) (any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 20
	}
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := client.Messages(ctx, args.ChannelID, limit)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Internal, err, "list messages for channel %s", args.ChannelID)
	}
	return messages, nil
}
