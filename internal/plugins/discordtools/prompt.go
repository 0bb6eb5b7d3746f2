package discordtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
)

func registerPrompt(mgr *manifest.Manager) {
	summarize := mgr.Prompt("summarize_channel",
		mustInvoker("summarize_channel", summarizeChannel),
		manifest.WithTitle("Summarize channel"),
		manifest.WithDescription("Asks the model to summarize a Discord channel's recent activity."),
		manifest.WithPromptArguments(manifest.PromptArgument{
			Name:     "channel_id",
			Required: true,
		}),
	)
	if err := summarize.WithAutocomplete("channel_id", completeChannelID); err != nil {
		panic("discordtools: summarize_channel prompt: " + err.Error())
	}
}

const summarizeChannelMessageWindow = 30

// SummarizeChannelArgs is summarize_channel's parameter struct.
type SummarizeChannelArgs struct {
	ChannelID string `json:"channel_id" desc:"Discord channel ID to summarize"`
}

func summarizeChannel(ctx context.Context, args SummarizeChannelArgs) (any, error) {
	client, err := platformClient(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := client.Messages(ctx, args.ChannelID, summarizeChannelMessageWindow)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.PromptRenderError, err, "load recent messages for channel %s", args.ChannelID)
	}
	if len(messages) == 0 {
		return fmt.Sprintf("Channel %s has no recent messages to summarize.", args.ChannelID), nil
	}

	var transcript strings.Builder
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		fmt.Fprintf(&transcript, "%s: %s\n", msg.AuthorID, msg.Content)
	}

	prompt := fmt.Sprintf(
		"Summarize the following Discord channel conversation in a few sentences, "+
			"focusing on decisions made and open questions:\n\n%s",
		transcript.String(),
	)
	return prompt, nil
}
