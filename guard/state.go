package guard

import (
	"sync"
	"time"
)

// joinRecord is one observed membership join. Immutable once appended.
type joinRecord struct {
	at       time.Time
	memberID string
}

// FlagRecord explains why a member is suspected to be an alt account.
// The first flag for a member is authoritative and never overwritten.
type FlagRecord struct {
	InviterID string
	Reason    string
}

// guildState owns every mutable structure for one guild. The state
// mutex guards everything except the invite snapshot, which has its
// own mutex so a snapshot replacement can be held across the network
// fetch (single writer per guild) without blocking join bookkeeping.
type guildState struct {
	mu        sync.Mutex
	joins     []joinRecord                   // oldest first
	inviterOf map[string]string              // member -> inviter, "" = unknown
	invitedBy map[string]map[string]struct{} // inviter -> members, append-only
	banned    map[string]struct{}            // inviters already swept
	flagged   map[string]FlagRecord          // member -> first flag

	inviteMu sync.Mutex
	invites  map[string]Invite // code -> last fetched snapshot entry
}

func newGuildState() *guildState {
	return &guildState{
		inviterOf: make(map[string]string),
		invitedBy: make(map[string]map[string]struct{}),
		banned:    make(map[string]struct{}),
		flagged:   make(map[string]FlagRecord),
		invites:   make(map[string]Invite),
	}
}

// recordJoin appends a join and prunes entries older than window from
// the front. Callers hold gs.mu. Entries stay oldest-first, so pruning
// stops at the first entry still inside the window.
func (gs *guildState) recordJoin(at time.Time, memberID string, window time.Duration) {
	gs.joins = append(gs.joins, joinRecord{at: at, memberID: memberID})
	gs.pruneJoins(at, window)
}

// pruneJoins drops entries with at-ts > window. Callers hold gs.mu.
func (gs *guildState) pruneJoins(now time.Time, window time.Duration) {
	i := 0
	for i < len(gs.joins) && now.Sub(gs.joins[i].at) > window {
		i++
	}
	if i > 0 {
		gs.joins = append(gs.joins[:0], gs.joins[i:]...)
	}
}

// drainJoins empties the window and returns the member IDs that were
// in it, oldest first. Callers hold gs.mu.
func (gs *guildState) drainJoins() []string {
	ids := make([]string, len(gs.joins))
	for i, r := range gs.joins {
		ids[i] = r.memberID
	}
	gs.joins = gs.joins[:0]
	return ids
}
