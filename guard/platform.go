package guard

import "context"

// Invite is one active invite as reported by the platform.
type Invite struct {
	Code      string
	Uses      int
	InviterID string
}

// Platform is the outbound boundary to the chat platform. All calls are
// best-effort; callers treat an error as a failed attempt for that one
// operation and move on.
type Platform interface {
	// FetchInvites returns the live list of active invites for a guild.
	FetchInvites(ctx context.Context, guildID string) ([]Invite, error)

	// KickMember removes a member from a guild with an audit reason.
	KickMember(ctx context.Context, guildID, memberID, reason string) error

	// TextChannels returns the IDs of the guild's text channels.
	TextChannels(ctx context.Context, guildID string) ([]string, error)

	// SendChannelMessage posts a message to a channel.
	SendChannelMessage(ctx context.Context, channelID, text string) error

	// SendDirectMessage delivers a private message to a user.
	SendDirectMessage(ctx context.Context, userID, text string) error

	// GuildOwner returns the user ID of the guild's owner.
	GuildOwner(ctx context.Context, guildID string) (string, error)
}
