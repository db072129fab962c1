package guard

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// sessionPlatform adapts a discordgo session to the Platform boundary.
type sessionPlatform struct {
	s *discordgo.Session
}

// NewSessionPlatform wraps a discordgo session as a Platform.
func NewSessionPlatform(s *discordgo.Session) Platform {
	return &sessionPlatform{s: s}
}

func (p *sessionPlatform) FetchInvites(ctx context.Context, guildID string) ([]Invite, error) {
	invites, err := p.s.GuildInvites(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]Invite, 0, len(invites))
	for _, inv := range invites {
		entry := Invite{Code: inv.Code, Uses: inv.Uses}
		if inv.Inviter != nil {
			entry.InviterID = inv.Inviter.ID
		}
		out = append(out, entry)
	}
	return out, nil
}

func (p *sessionPlatform) KickMember(ctx context.Context, guildID, memberID, reason string) error {
	return p.s.GuildMemberDeleteWithReason(guildID, memberID, reason, discordgo.WithContext(ctx))
}

func (p *sessionPlatform) TextChannels(ctx context.Context, guildID string) ([]string, error) {
	channels, err := p.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			ids = append(ids, ch.ID)
		}
	}
	return ids, nil
}

func (p *sessionPlatform) SendChannelMessage(ctx context.Context, channelID, text string) error {
	_, err := p.s.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

func (p *sessionPlatform) SendDirectMessage(ctx context.Context, userID, text string) error {
	ch, err := p.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = p.s.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx))
	return err
}

func (p *sessionPlatform) GuildOwner(ctx context.Context, guildID string) (string, error) {
	// The state cache normally has the guild; fall back to the API.
	if g, err := p.s.State.Guild(guildID); err == nil && g.OwnerID != "" {
		return g.OwnerID, nil
	}
	g, err := p.s.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return g.OwnerID, nil
}
