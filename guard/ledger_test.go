package guard

import (
	"errors"
	"testing"
)

// resolverGuard returns a guard whose raid threshold is high enough
// that attribution tests never trip the detector.
func resolverGuard(p Platform) *Guard {
	cfg := testConfig()
	cfg.RaidThreshold = 1000
	return newTestGuard(cfg, p, newFakeClock())
}

func TestResolveInviterOnUseIncrease(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)

	p.setInvites(Invite{Code: "abc", Uses: 3, InviterID: "X"})
	g.RefreshInvites("g1")

	p.setInvites(Invite{Code: "abc", Uses: 4, InviterID: "X"})
	out := g.HandleJoin("g1", "newbie")

	if out.InviterID != "X" {
		t.Fatalf("resolved inviter = %q, want X", out.InviterID)
	}
	attrs := g.Attributions("g1")
	if attrs["newbie"] != "X" {
		t.Fatalf("attribution = %q, want X", attrs["newbie"])
	}

	// The inviter index gained the member: banning X sweeps newbie.
	ban := g.HandleBan("g1", "X")
	if len(ban.Flagged) != 1 || ban.Flagged[0] != "newbie" {
		t.Fatalf("index sweep flagged %v, want [newbie]", ban.Flagged)
	}
}

func TestResolveUnknownWhenNothingChanged(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)

	p.setInvites(Invite{Code: "abc", Uses: 3, InviterID: "X"})
	g.RefreshInvites("g1")
	out := g.HandleJoin("g1", "newbie")

	if out.InviterID != "" {
		t.Fatalf("resolved inviter = %q, want unknown", out.InviterID)
	}
	attrs := g.Attributions("g1")
	inv, ok := attrs["newbie"]
	if !ok {
		t.Fatal("attribution record missing for unknown inviter")
	}
	if inv != "" {
		t.Fatalf("attribution = %q, want unknown", inv)
	}

	// The index must not have gained an entry: banning X later must
	// not sweep this member.
	ban := g.HandleBan("g1", "X")
	if len(ban.Flagged) != 0 {
		t.Fatalf("member flagged despite unknown attribution: %v", ban.Flagged)
	}
}

func TestResolveTieBreakIsLexicographic(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)

	p.setInvites(
		Invite{Code: "zzz", Uses: 1, InviterID: "Z"},
		Invite{Code: "aaa", Uses: 1, InviterID: "A"},
	)
	g.RefreshInvites("g1")
	p.setInvites(
		Invite{Code: "zzz", Uses: 2, InviterID: "Z"},
		Invite{Code: "aaa", Uses: 2, InviterID: "A"},
	)
	out := g.HandleJoin("g1", "newbie")

	if out.InviterID != "A" {
		t.Fatalf("tie-break picked %q, want A (smallest code)", out.InviterID)
	}
}

func TestResolveNewCodeCountsFromZero(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)

	g.RefreshInvites("g1") // empty snapshot
	p.setInvites(Invite{Code: "fresh", Uses: 1, InviterID: "Y"})
	out := g.HandleJoin("g1", "newbie")

	if out.InviterID != "Y" {
		t.Fatalf("resolved inviter = %q, want Y", out.InviterID)
	}
}

func TestResolveToleratesUseDecrease(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)

	p.setInvites(Invite{Code: "abc", Uses: 9, InviterID: "X"})
	g.RefreshInvites("g1")
	p.setInvites(Invite{Code: "abc", Uses: 2, InviterID: "X"})
	out := g.HandleJoin("g1", "newbie")

	if out.InviterID != "" {
		t.Fatalf("stale decrease resolved to %q, want unknown", out.InviterID)
	}

	// The decreased snapshot replaced the stored one, so the next
	// genuine use is detected against it.
	p.setInvites(Invite{Code: "abc", Uses: 3, InviterID: "X"})
	out = g.HandleJoin("g1", "second")
	if out.InviterID != "X" {
		t.Fatalf("post-reset increase resolved to %q, want X", out.InviterID)
	}
}

func TestRefreshFailureKeepsPriorSnapshot(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)

	p.setInvites(Invite{Code: "abc", Uses: 3, InviterID: "X"})
	g.RefreshInvites("g1")

	p.mu.Lock()
	p.invitesErr = errors.New("missing permission")
	p.mu.Unlock()
	g.RefreshInvites("g1") // no-op, prior snapshot survives

	p.mu.Lock()
	p.invitesErr = nil
	p.mu.Unlock()
	p.setInvites(Invite{Code: "abc", Uses: 4, InviterID: "X"})
	out := g.HandleJoin("g1", "newbie")

	if out.InviterID != "X" {
		t.Fatalf("resolved inviter = %q, want X (snapshot lost on failed refresh?)", out.InviterID)
	}
}

func TestResolveDegradesToUnknownWhenInvitesUnreadable(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)
	p.mu.Lock()
	p.invitesErr = errors.New("missing permission")
	p.mu.Unlock()

	out := g.HandleJoin("g1", "newbie")
	if out.InviterID != "" {
		t.Fatalf("resolved inviter = %q, want unknown", out.InviterID)
	}
	if out.WindowCount != 1 {
		t.Fatalf("join not recorded in window despite unreadable invites, count = %d", out.WindowCount)
	}
}

func TestResolveUnknownWhenInviterMissing(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	g := resolverGuard(p)

	p.setInvites(Invite{Code: "abc", Uses: 3})
	g.RefreshInvites("g1")
	p.setInvites(Invite{Code: "abc", Uses: 4})
	out := g.HandleJoin("g1", "newbie")

	if out.InviterID != "" {
		t.Fatalf("resolved inviter = %q, want unknown (invite has no creator)", out.InviterID)
	}
}
