package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *GuardDB {
	t.Helper()
	gdb, err := NewGuardDB(filepath.Join(t.TempDir(), "guard.db"))
	if err != nil {
		t.Fatalf("NewGuardDB: %v", err)
	}
	t.Cleanup(gdb.Close)
	return gdb
}

func TestJoinStatsAccumulate(t *testing.T) {
	gdb := openTestDB(t)

	for i := 0; i < 3; i++ {
		if err := gdb.IncrementJoins("g1", 1); err != nil {
			t.Fatalf("IncrementJoins: %v", err)
		}
	}
	if err := gdb.IncrementJoins("g2", 5); err != nil {
		t.Fatalf("IncrementJoins: %v", err)
	}

	joins, err := gdb.TodayJoins("g1")
	if err != nil {
		t.Fatalf("TodayJoins: %v", err)
	}
	if joins != 3 {
		t.Fatalf("TodayJoins(g1) = %d, want 3", joins)
	}

	joins, err = gdb.TodayJoins("g2")
	if err != nil {
		t.Fatalf("TodayJoins: %v", err)
	}
	if joins != 5 {
		t.Fatalf("TodayJoins(g2) = %d, want 5", joins)
	}
}

func TestTodayJoinsUnknownGuildIsZero(t *testing.T) {
	gdb := openTestDB(t)

	joins, err := gdb.TodayJoins("nope")
	if err != nil {
		t.Fatalf("TodayJoins: %v", err)
	}
	if joins != 0 {
		t.Fatalf("TodayJoins = %d, want 0", joins)
	}
}

func TestAuditRecordsInsert(t *testing.T) {
	gdb := openTestDB(t)

	if err := gdb.RecordKick("g1", "m1", true, ""); err != nil {
		t.Fatalf("RecordKick: %v", err)
	}
	if err := gdb.RecordKick("g1", "m2", false, "missing permission"); err != nil {
		t.Fatalf("RecordKick (failed attempt): %v", err)
	}
	if err := gdb.RecordFlag("g1", "m1", "x", "invited by banned user x"); err != nil {
		t.Fatalf("RecordFlag: %v", err)
	}
	if err := gdb.RecordAttribution("g1", "m1", ""); err != nil {
		t.Fatalf("RecordAttribution with unknown inviter: %v", err)
	}

	var kicks int
	if err := gdb.db.QueryRow(`SELECT COUNT(*) FROM raid_kicks WHERE guild_id = ?`, "g1").Scan(&kicks); err != nil {
		t.Fatalf("count raid_kicks: %v", err)
	}
	if kicks != 2 {
		t.Fatalf("raid_kicks rows = %d, want 2", kicks)
	}
}
