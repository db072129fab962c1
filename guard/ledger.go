package guard

import (
	"log"
	"sort"
)

// RefreshInvites replaces the guild's invite snapshot with the live
// list. A failed fetch keeps the prior snapshot in place; the caller
// never sees an error because invite visibility is a degraded mode,
// not a failure of membership processing.
func (g *Guard) RefreshInvites(guildID string) {
	gs := g.state(guildID)
	gs.inviteMu.Lock()
	defer gs.inviteMu.Unlock()

	ctx, cancel := g.callCtx()
	invites, err := g.platform.FetchInvites(ctx, guildID)
	cancel()
	if err != nil {
		log.Printf("[INVITES] failed to fetch invites for guild %s: %v", guildID, err)
		return
	}
	gs.invites = snapshotOf(invites)
}

// resolveInviter diffs the stored invite snapshot against a fresh
// fetch to attribute the invite a just-joined member used. The fresh
// snapshot unconditionally becomes the stored one, whether or not a
// use delta was found. Returns ("", false) when no inviter can be
// determined (vanity URL, invite deleted right after use, or the
// fetch itself failing).
//
// When several codes increased in the same poll interval the winner
// is the lexicographically smallest code, so resolution is
// deterministic.
func (g *Guard) resolveInviter(gs *guildState, guildID string) (string, bool) {
	gs.inviteMu.Lock()
	defer gs.inviteMu.Unlock()

	ctx, cancel := g.callCtx()
	invites, err := g.platform.FetchInvites(ctx, guildID)
	cancel()
	if err != nil {
		log.Printf("[INVITES] failed to check invites post-join in guild %s: %v", guildID, err)
		return "", false
	}

	before := gs.invites
	after := snapshotOf(invites)
	gs.invites = after

	codes := make([]string, 0, len(after))
	for code := range after {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		inv := after[code]
		prev := before[code].Uses // zero value covers codes created since the last snapshot
		// A decrease means the stored snapshot was stale; that is
		// "no increase", never a negative delta.
		if inv.Uses <= prev {
			continue
		}
		if inv.InviterID == "" {
			// Used invite found but its creator is not reported.
			return "", false
		}
		return inv.InviterID, true
	}
	return "", false
}

func snapshotOf(invites []Invite) map[string]Invite {
	snap := make(map[string]Invite, len(invites))
	for _, inv := range invites {
		snap[inv.Code] = inv
	}
	return snap
}
