package guard

import (
	"fmt"
	"log"
	"sort"
)

// BanOutcome summarizes one processed ban notification.
type BanOutcome struct {
	// Swept is false when the user had already been swept before.
	Swept bool
	// Flagged lists the invitees newly flagged by this sweep.
	Flagged []string
}

// HandleBan marks a user as a banned inviter and sweeps the inviter
// index for every member they historically invited, flagging each one
// that is not already flagged. The sweep runs at most once per banned
// user per guild; repeated ban notifications for the same user are
// no-ops.
func (g *Guard) HandleBan(guildID, userID string) BanOutcome {
	gs := g.state(guildID)

	gs.mu.Lock()
	if _, done := gs.banned[userID]; done {
		gs.mu.Unlock()
		return BanOutcome{}
	}
	gs.banned[userID] = struct{}{}
	invitees := make([]string, 0, len(gs.invitedBy[userID]))
	for memberID := range gs.invitedBy[userID] {
		invitees = append(invitees, memberID)
	}
	gs.mu.Unlock()
	sort.Strings(invitees)

	log.Printf("[BAN] marked %s as banned inviter in guild %s, sweeping %d invitees", userID, guildID, len(invitees))

	out := BanOutcome{Swept: true}
	for _, memberID := range invitees {
		if g.flagMember(gs, guildID, memberID, userID) {
			out.Flagged = append(out.Flagged, memberID)
		}
	}
	return out
}

// flagMember records a flag for the member and fires the notification
// fan-out. Returns false when the member already carried a flag; the
// first recorded reason stays authoritative and no duplicate
// notifications are sent. Flag records are keyed by member ID and do
// not require the member to still be present in the guild.
func (g *Guard) flagMember(gs *guildState, guildID, memberID, inviterID string) bool {
	rec := FlagRecord{
		InviterID: inviterID,
		Reason:    fmt.Sprintf("invited by banned user %s", inviterID),
	}

	gs.mu.Lock()
	if _, done := gs.flagged[memberID]; done {
		gs.mu.Unlock()
		return false
	}
	gs.flagged[memberID] = rec
	gs.mu.Unlock()

	log.Printf("[ALTS] flagged %s in guild %s: %s", memberID, guildID, rec.Reason)
	g.notifyFlagged(guildID, memberID, inviterID)
	return true
}

// notifyFlagged emits the three notification channels for a fresh
// flag: a bounded broadcast to the guild's text channels, a DM to the
// flagged member, and a DM to the operator(s). Each channel fails
// independently; a failure is logged and the rest still run. Nothing
// is retried.
func (g *Guard) notifyFlagged(guildID, memberID, inviterID string) {
	warning := fmt.Sprintf("⚠️ THIS ACCOUNT (<@%s>) IS LIKELY AN ALT ACCOUNT OF (<@%s>) TAKE PRECAUTION ⚠️", memberID, inviterID)

	g.broadcastWarning(guildID, warning)

	dm := fmt.Sprintf("Your account in guild %s was flagged as a suspected alt of banned user %s.", guildID, inviterID)
	g.sendDM(memberID, dm)

	note := fmt.Sprintf("Guild %s: member <@%s> flagged as a suspected alt of banned user <@%s>.", guildID, memberID, inviterID)
	for _, op := range g.operators(guildID) {
		g.sendDM(op, note)
	}
}

// broadcastWarning posts the warning to at most WarnMaxChannels text
// channels, bounding fan-out and rate-limit exposure.
func (g *Guard) broadcastWarning(guildID, text string) {
	ctx, cancel := g.callCtx()
	channels, err := g.platform.TextChannels(ctx, guildID)
	cancel()
	if err != nil {
		log.Printf("[ALTS] failed to list channels for guild %s: %v", guildID, err)
		return
	}
	if len(channels) > g.cfg.WarnMaxChannels {
		channels = channels[:g.cfg.WarnMaxChannels]
	}
	for _, chID := range channels {
		ctx, cancel := g.callCtx()
		if err := g.platform.SendChannelMessage(ctx, chID, text); err != nil {
			log.Printf("[ALTS] failed to warn in channel %s (guild %s): %v", chID, guildID, err)
		}
		cancel()
	}
}

func (g *Guard) sendDM(userID, text string) {
	ctx, cancel := g.callCtx()
	defer cancel()
	if err := g.platform.SendDirectMessage(ctx, userID, text); err != nil {
		log.Printf("[ALTS] failed to DM %s: %v", userID, err)
	}
}

// operators returns who gets the operator notification: the guild
// owner plus the configured operator identity, deduplicated.
func (g *Guard) operators(guildID string) []string {
	var ops []string
	ctx, cancel := g.callCtx()
	owner, err := g.platform.GuildOwner(ctx, guildID)
	cancel()
	if err != nil {
		log.Printf("[ALTS] failed to resolve owner of guild %s: %v", guildID, err)
	} else if owner != "" {
		ops = append(ops, owner)
	}
	if g.cfg.OperatorID != "" && g.cfg.OperatorID != owner {
		ops = append(ops, g.cfg.OperatorID)
	}
	return ops
}
