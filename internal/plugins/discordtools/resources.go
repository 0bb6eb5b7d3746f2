package discordtools

import (
	"context"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
)

func registerResources(mgr *manifest.Manager) {
	mgr.Resource("guild", "discord://guild/{guild_id}",
		mustInvoker("guild resource", readGuild),
		manifest.WithTitle("Guild metadata"),
		manifest.WithDescription("Discord guild identity, name, and owner."),
		manifest.WithMimeType("application/json"),
	)

	mgr.Resource("user", "discord://user/{user_id}",
		mustInvoker("user resource", readUser),
		manifest.WithTitle("User record"),
		manifest.WithDescription("Discord user identity."),
		manifest.WithMimeType("application/json"),
	)

	channelMessages := mgr.Resource("channel_messages", "discord://channel/{channel_id}/messages",
		mustInvoker("channel messages resource", readChannelMessages),
		manifest.WithTitle("Recent channel messages"),
		manifest.WithDescription("The most recent message window for a Discord channel."),
		manifest.WithMimeType("application/json"),
	)
	if err := channelMessages.WithAutocomplete("channel_id", completeChannelID); err != nil {
		panic("discordtools: channel_messages resource: " + err.Error())
	}
}

// GuildResourceArgs is discord://guild/{guild_id}'s path parameter struct.
type GuildResourceArgs struct {
	GuildID string `json:"guild_id"`
}

func readGuild(ctx context.Context, args GuildResourceArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	guild, err := client.Guild(ctx, args.GuildID)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.ResourceReadError, err, "read guild %s", args.GuildID)
	}
	return guild, nil
}

// UserResourceArgs is discord://user/{user_id}'s path parameter struct.
type UserResourceArgs struct {
	UserID string `json:"user_id"`
}

func readUser(ctx context.Context, args UserResourceArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	user, err := client.User(ctx, args.UserID)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.ResourceReadError, err, "read user %s", args.UserID)
	}
	return user, nil
}

// ChannelMessagesArgs is discord://channel/{channel_id}/messages' path
// parameter struct.
type ChannelMessagesArgs struct {
	ChannelID string `json:"channel_id"`
}

// recentMessageWindow bounds how many messages a resource read returns;
// unlike the list_recent_messages tool, a resource URI carries no limit
// parameter of its own.
const recentMessageWindow = 50

func readChannelMessages(ctx context.Context, args ChannelMessagesArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := client.Messages(ctx, args.ChannelID, recentMessageWindow)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.ResourceReadError, err, "read messages for channel %s", args.ChannelID)
	}
	return messages, nil
}
