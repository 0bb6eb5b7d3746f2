package discordtools

import (
	"context"
	"strings"

	"github.com/MrWong99/guildmcp/internal/manifest"
)

// completeChannelID enumerates channel IDs from the guild named by
// contextArgs["guild_id"], filtered to those whose ID or name has
// partial as a prefix. The completion protocol passes contextArgs
// independently of the manifest's own declared argument list, so a
// client that already knows which guild it's working in can supply
// guild_id even when the manifest being completed (summarize_channel,
// the channel_messages resource) only declares channel_id itself. With
// no guild_id supplied there is nothing to enumerate against, so this
// returns no suggestions rather than erroring.
func completeChannelID(ctx context.Context, m *manifest.Manifest, partial string, contextArgs map[string]string) ([]string, error) {
	guildID := contextArgs["guild_id"]
	if guildID == "" {
		return nil, nil
	}
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := client.Channels(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, ch := range channels {
		if strings.HasPrefix(ch.ID, partial) || strings.HasPrefix(ch.Name, partial) {
			matches = append(matches, ch.ID)
		}
	}
	return matches, nil
}
