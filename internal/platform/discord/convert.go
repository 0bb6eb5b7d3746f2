package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/MrWong99/guildmcp/internal/platform"
)

func convertGuild(g *discordgo.Guild) *platform.Guild {
	return &platform.Guild{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID}
}

func convertChannel(ch *discordgo.Channel) *platform.Channel {
	return &platform.Channel{
		ID:      ch.ID,
		GuildID: ch.GuildID,
		Name:    ch.Name,
		Topic:   ch.Topic,
		Type:    int(ch.Type),
	}
}

func convertUser(u *discordgo.User) *platform.User {
	return &platform.User{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Bot:           u.Bot,
	}
}

func convertMember(m *discordgo.Member) *platform.Member {
	member := &platform.Member{
		GuildID: m.GuildID,
		Nick:    m.Nick,
		RoleIDs: m.Roles,
	}
	if m.User != nil {
		member.User = *convertUser(m.User)
	}
	return member
}

func convertRole(r *discordgo.Role) *platform.Role {
	return &platform.Role{ID: r.ID, Name: r.Name, Color: r.Color}
}

func convertMessage(m *discordgo.Message) *platform.Message {
	return &platform.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  authorID(m),
		Content:   m.Content,
	}
}

func authorID(m *discordgo.Message) string {
	if m.Author == nil {
		return ""
	}
	return m.Author.ID
}
