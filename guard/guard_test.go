package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakePlatform records outbound commands and replays configured
// results, standing in for the Discord client.
type fakePlatform struct {
	mu          sync.Mutex
	invites     []Invite
	invitesErr  error
	kicked      []string
	kickErr     map[string]error
	channels    []string
	channelsErr error
	sent        map[string][]string // channelID -> messages
	sendErr     error
	dms         map[string][]string // userID -> messages
	dmErr       error
	owner       string
	ownerErr    error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		kickErr: make(map[string]error),
		sent:    make(map[string][]string),
		dms:     make(map[string][]string),
	}
}

func (f *fakePlatform) setInvites(invites ...Invite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = invites
}

func (f *fakePlatform) FetchInvites(_ context.Context, _ string) ([]Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invitesErr != nil {
		return nil, f.invitesErr
	}
	out := make([]Invite, len(f.invites))
	copy(out, f.invites)
	return out, nil
}

func (f *fakePlatform) KickMember(_ context.Context, _, memberID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.kickErr[memberID]; err != nil {
		return err
	}
	f.kicked = append(f.kicked, memberID)
	return nil
}

func (f *fakePlatform) TextChannels(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	out := make([]string, len(f.channels))
	copy(out, f.channels)
	return out, nil
}

func (f *fakePlatform) SendChannelMessage(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent[channelID] = append(f.sent[channelID], text)
	return nil
}

func (f *fakePlatform) SendDirectMessage(_ context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return f.dmErr
	}
	f.dms[userID] = append(f.dms[userID], text)
	return nil
}

func (f *fakePlatform) GuildOwner(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner, f.ownerErr
}

func (f *fakePlatform) kickedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.kicked))
	copy(out, f.kicked)
	return out
}

func (f *fakePlatform) dmCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dms[userID])
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() Config {
	return Config{
		RaidWindow:      60 * time.Second,
		RaidThreshold:   5,
		WarnMaxChannels: 5,
		CallTimeout:     time.Second,
	}
}

func newTestGuard(cfg Config, p Platform, clock *fakeClock) *Guard {
	g := New(cfg, p)
	g.now = clock.Now
	return g
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := testConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := testConfig()
	bad.RaidThreshold = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero threshold accepted")
	}
	bad = testConfig()
	bad.RaidWindow = -time.Second
	if err := bad.Validate(); err == nil {
		t.Fatal("negative window accepted")
	}
	bad = testConfig()
	bad.WarnMaxChannels = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero channel cap accepted")
	}
}

func TestWindowCountMatchesTimestamps(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g := newTestGuard(testConfig(), newFakePlatform(), clock)

	// Joins at t=0s, 20s, 40s, 70s. At t=70s only the joins within
	// the last 60s remain.
	offsets := []time.Duration{0, 20 * time.Second, 40 * time.Second, 70 * time.Second}
	last := time.Duration(0)
	for i, off := range offsets {
		clock.advance(off - last)
		last = off
		g.HandleJoin("g1", string(rune('a'+i)))
	}

	if got := g.CountInWindow("g1"); got != 3 {
		t.Fatalf("CountInWindow = %d, want 3", got)
	}

	clock.advance(45 * time.Second) // t=115s, joins at 70s still inside
	if got := g.CountInWindow("g1"); got != 1 {
		t.Fatalf("CountInWindow after advance = %d, want 1", got)
	}

	clock.advance(30 * time.Second) // t=145s, everything expired
	if got := g.CountInWindow("g1"); got != 0 {
		t.Fatalf("CountInWindow after expiry = %d, want 0", got)
	}
}

func TestRaidTriggerKicksWholeWindow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := newFakePlatform()
	g := newTestGuard(testConfig(), p, clock)

	members := []string{"m1", "m2", "m3", "m4", "m5", "m6"}
	var last JoinOutcome
	for _, m := range members {
		last = g.HandleJoin("g1", m)
		clock.advance(2 * time.Second) // all six inside a 10s span
	}

	if !last.RaidTriggered {
		t.Fatal("sixth join did not trigger the raid sweep")
	}
	kicked := p.kickedIDs()
	if len(kicked) != len(members) {
		t.Fatalf("kicked %d members, want %d: %v", len(kicked), len(members), kicked)
	}
	for i, m := range members {
		if kicked[i] != m {
			t.Fatalf("kicked[%d] = %s, want %s", i, kicked[i], m)
		}
	}
	if got := g.CountInWindow("g1"); got != 0 {
		t.Fatalf("window not drained after sweep, count = %d", got)
	}
}

func TestNoRetriggerUntilFreshBurst(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := newFakePlatform()
	g := newTestGuard(testConfig(), p, clock)

	for i := 0; i < 6; i++ {
		g.HandleJoin("g1", string(rune('a'+i)))
	}
	if len(p.kickedIDs()) != 6 {
		t.Fatalf("first sweep kicked %d, want 6", len(p.kickedIDs()))
	}

	// Five more joins stay under the threshold.
	for i := 0; i < 5; i++ {
		out := g.HandleJoin("g1", string(rune('p'+i)))
		if out.RaidTriggered {
			t.Fatalf("join %d retriggered below threshold", i+1)
		}
	}
	if len(p.kickedIDs()) != 6 {
		t.Fatalf("kicks after sub-threshold joins = %d, want 6", len(p.kickedIDs()))
	}

	// The sixth fresh join crosses it again.
	out := g.HandleJoin("g1", "z")
	if !out.RaidTriggered {
		t.Fatal("fresh burst did not retrigger")
	}
	if len(p.kickedIDs()) != 12 {
		t.Fatalf("kicks after second sweep = %d, want 12", len(p.kickedIDs()))
	}
}

func TestKickFailureDoesNotAbortSweep(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := newFakePlatform()
	p.kickErr["m3"] = errors.New("missing permission")
	g := newTestGuard(testConfig(), p, clock)

	var last JoinOutcome
	for i := 1; i <= 6; i++ {
		last = g.HandleJoin("g1", "m"+string(rune('0'+i)))
	}

	if !last.RaidTriggered {
		t.Fatal("raid did not trigger")
	}
	if len(last.Kicked) != 6 {
		t.Fatalf("sweep attempted %d kicks, want 6", len(last.Kicked))
	}
	var failed int
	for _, r := range last.Kicked {
		if r.Err != nil {
			failed++
			if r.MemberID != "m3" {
				t.Fatalf("unexpected failed kick for %s", r.MemberID)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("failed kicks = %d, want 1", failed)
	}
	if len(p.kickedIDs()) != 5 {
		t.Fatalf("successful kicks = %d, want 5", len(p.kickedIDs()))
	}
}

func TestGuildWindowsAreIndependent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := newFakePlatform()
	g := newTestGuard(testConfig(), p, clock)

	for i := 0; i < 5; i++ {
		g.HandleJoin("g1", string(rune('a'+i)))
		g.HandleJoin("g2", string(rune('a'+i)))
	}
	out := g.HandleJoin("g1", "f")
	if !out.RaidTriggered {
		t.Fatal("guild g1 did not trigger")
	}
	if got := g.CountInWindow("g2"); got != 5 {
		t.Fatalf("guild g2 window disturbed, count = %d, want 5", got)
	}
}

func TestConcurrentJoinsAcrossGuilds(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := newFakePlatform()
	cfg := testConfig()
	cfg.RaidThreshold = 1000
	g := newTestGuard(cfg, p, clock)

	const guilds = 4
	const joins = 200
	var wg sync.WaitGroup
	for gi := 0; gi < guilds; gi++ {
		wg.Add(1)
		go func(guildID string) {
			defer wg.Done()
			for i := 0; i < joins; i++ {
				g.HandleJoin(guildID, "m")
			}
		}(string(rune('A' + gi)))
	}
	wg.Wait()

	for gi := 0; gi < guilds; gi++ {
		id := string(rune('A' + gi))
		if got := g.CountInWindow(id); got != joins {
			t.Fatalf("guild %s count = %d, want %d", id, got, joins)
		}
	}
}
