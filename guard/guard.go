// Package guard implements the membership-event correlation engine:
// a sliding-window burst-join raid detector, invite-delta inviter
// attribution, and alt flagging for accounts linked to banned
// inviters. All state is in-memory, per guild, and rebuilt from live
// queries after a restart.
package guard

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Config holds the engine tunables.
type Config struct {
	// RaidWindow is the sliding window over recent joins.
	RaidWindow time.Duration
	// RaidThreshold triggers a raid sweep once the window holds
	// strictly more than this many joins.
	RaidThreshold int
	// WarnMaxChannels caps how many text channels an alt warning is
	// broadcast to.
	WarnMaxChannels int
	// OperatorID, if set, additionally receives alt notifications by DM.
	OperatorID string
	// CallTimeout bounds every outbound platform call.
	CallTimeout time.Duration
}

// Validate reports malformed configuration. Run once at startup,
// before any event is processed.
func (c Config) Validate() error {
	if c.RaidWindow <= 0 {
		return fmt.Errorf("raid window must be positive, got %s", c.RaidWindow)
	}
	if c.RaidThreshold <= 0 {
		return fmt.Errorf("raid threshold must be positive, got %d", c.RaidThreshold)
	}
	if c.WarnMaxChannels <= 0 {
		return fmt.Errorf("warn max channels must be positive, got %d", c.WarnMaxChannels)
	}
	return nil
}

// Guard is the per-guild moderation state registry. One instance
// serves every guild the bot is in; guilds never share a lock.
type Guard struct {
	cfg      Config
	platform Platform
	now      func() time.Time

	mu     sync.Mutex
	guilds map[string]*guildState
}

// New creates a Guard. The config must already be validated.
func New(cfg Config, p Platform) *Guard {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &Guard{
		cfg:      cfg,
		platform: p,
		now:      time.Now,
		guilds:   make(map[string]*guildState),
	}
}

// state returns the guild's state, creating it on first observation.
func (g *Guard) state(guildID string) *guildState {
	g.mu.Lock()
	defer g.mu.Unlock()
	gs, ok := g.guilds[guildID]
	if !ok {
		gs = newGuildState()
		g.guilds[guildID] = gs
	}
	return gs
}

// Guilds returns the IDs of every guild observed so far, sorted.
func (g *Guard) Guilds() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.guilds))
	for id := range g.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Guard) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), g.cfg.CallTimeout)
}

// KickResult is the outcome of one removal attempt during a raid sweep.
type KickResult struct {
	MemberID string
	Err      error
}

// JoinOutcome summarizes what one join notification caused. Handlers
// use it for audit logging; the engine has already acted on it.
type JoinOutcome struct {
	WindowCount   int
	RaidTriggered bool
	Kicked        []KickResult
	InviterID     string // "" when unknown
	Flagged       bool
}

// HandleJoin processes a membership-join notification: records it in
// the join window, evaluates the raid threshold, attributes an inviter
// by invite-usage delta, and flags the member immediately if the
// inviter is already banned. Never returns an error; every external
// failure is absorbed and logged.
func (g *Guard) HandleJoin(guildID, memberID string) JoinOutcome {
	now := g.now()
	gs := g.state(guildID)
	var out JoinOutcome

	gs.mu.Lock()
	gs.recordJoin(now, memberID, g.cfg.RaidWindow)
	out.WindowCount = len(gs.joins)
	var drained []string
	if out.WindowCount > g.cfg.RaidThreshold {
		drained = gs.drainJoins()
		out.RaidTriggered = true
	}
	gs.mu.Unlock()

	if out.RaidTriggered {
		out.Kicked = g.kickAll(guildID, drained)
	}

	inviterID, resolved := g.resolveInviter(gs, guildID)
	gs.mu.Lock()
	if resolved {
		gs.inviterOf[memberID] = inviterID
		set, ok := gs.invitedBy[inviterID]
		if !ok {
			set = make(map[string]struct{})
			gs.invitedBy[inviterID] = set
		}
		set[memberID] = struct{}{}
	} else {
		gs.inviterOf[memberID] = ""
	}
	_, inviterBanned := gs.banned[inviterID]
	gs.mu.Unlock()

	if resolved {
		out.InviterID = inviterID
		if inviterBanned {
			// The inviter was banned before this member joined.
			out.Flagged = g.flagMember(gs, guildID, memberID, inviterID)
		}
	}
	return out
}

// kickAll removes every drained member, best-effort. One failed kick
// never aborts the rest of the sweep.
func (g *Guard) kickAll(guildID string, memberIDs []string) []KickResult {
	reason := fmt.Sprintf("Raid prevention: more than %d joins within %s", g.cfg.RaidThreshold, g.cfg.RaidWindow)
	log.Printf("[RAID] threshold exceeded in guild %s, kicking %d recent joins", guildID, len(memberIDs))
	results := make([]KickResult, 0, len(memberIDs))
	for _, id := range memberIDs {
		ctx, cancel := g.callCtx()
		err := g.platform.KickMember(ctx, guildID, id, reason)
		cancel()
		if err != nil {
			log.Printf("[RAID] failed to kick %s in guild %s: %v", id, guildID, err)
		}
		results = append(results, KickResult{MemberID: id, Err: err})
	}
	return results
}

// CountInWindow returns how many joins are inside the raid window at
// the current instant. Exposed for the display commands.
func (g *Guard) CountInWindow(guildID string) int {
	gs := g.state(guildID)
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.pruneJoins(g.now(), g.cfg.RaidWindow)
	return len(gs.joins)
}

// Attributions returns a copy of the guild's member -> inviter map.
// An empty inviter ID means the inviter is unknown.
func (g *Guard) Attributions(guildID string) map[string]string {
	gs := g.state(guildID)
	gs.mu.Lock()
	defer gs.mu.Unlock()
	out := make(map[string]string, len(gs.inviterOf))
	for m, inv := range gs.inviterOf {
		out[m] = inv
	}
	return out
}

// FlaggedAccounts returns a copy of the guild's flag records.
func (g *Guard) FlaggedAccounts(guildID string) map[string]FlagRecord {
	gs := g.state(guildID)
	gs.mu.Lock()
	defer gs.mu.Unlock()
	out := make(map[string]FlagRecord, len(gs.flagged))
	for m, rec := range gs.flagged {
		out[m] = rec
	}
	return out
}
