package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/brieflab/mailbrief/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "state", "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestInsertAndListRuns(t *testing.T) {
	d := openTestDB(t)

	rec := &types.RunRecord{
		Mode:     types.ModeMorning,
		Grouping: types.GroupDaily,
		Items:    12,
		Groups:   3,
		SentTo:   "me@mycompany.com",
		Status:   types.RunStatusSent,
	}
	if err := d.InsertRun(rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" || rec.StartedAt == "" {
		t.Errorf("InsertRun should assign id and timestamp: %+v", rec)
	}

	runs, err := d.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.Mode != types.ModeMorning || got.Items != 12 || got.SentTo != "me@mycompany.com" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if d.RunCount() != 1 {
		t.Errorf("RunCount = %d, want 1", d.RunCount())
	}
}

func TestListRunsOrder(t *testing.T) {
	d := openTestDB(t)

	for i, started := range []string{
		"2026-08-27T09:05:00Z",
		"2026-08-28T09:05:00Z",
		"2026-08-28T17:05:00Z",
	} {
		err := d.InsertRun(&types.RunRecord{
			Mode:      types.ModeMorning,
			Grouping:  types.GroupDaily,
			Items:     i,
			Status:    types.RunStatusSent,
			StartedAt: started,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := d.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit not applied, got %d runs", len(runs))
	}
	if runs[0].StartedAt != "2026-08-28T17:05:00Z" {
		t.Errorf("newest first expected, got %q", runs[0].StartedAt)
	}
}

func TestLastRun(t *testing.T) {
	d := openTestDB(t)

	if got := d.LastRun(types.ModeMorning); got != "" {
		t.Errorf("empty ledger LastRun = %q, want empty", got)
	}

	inserts := []types.RunRecord{
		{Mode: types.ModeMorning, Grouping: types.GroupDaily, Status: types.RunStatusSent, StartedAt: "2026-08-27T09:05:00Z"},
		{Mode: types.ModeMorning, Grouping: types.GroupDaily, Status: types.RunStatusSent, StartedAt: "2026-08-28T09:05:00Z"},
		{Mode: types.ModeMorning, Grouping: types.GroupDaily, Status: types.RunStatusFailed, StartedAt: "2026-08-28T09:30:00Z"},
		{Mode: types.ModeEvening, Grouping: types.GroupDaily, Status: types.RunStatusSent, StartedAt: "2026-08-28T17:05:00Z"},
	}
	for i := range inserts {
		if err := d.InsertRun(&inserts[i]); err != nil {
			t.Fatal(err)
		}
	}

	if got := d.LastRun(types.ModeMorning); got != "2026-08-28T09:05:00Z" {
		t.Errorf("LastRun(morning) = %q, failed runs must not count", got)
	}
	if got := d.LastRun(types.ModeEvening); got != "2026-08-28T17:05:00Z" {
		t.Errorf("LastRun(evening) = %q", got)
	}
}

func TestGenID(t *testing.T) {
	a, b := GenID(), GenID()
	if len(a) != 16 {
		t.Errorf("id length = %d, want 16", len(a))
	}
	if a == b {
		t.Error("ids should be unique")
	}
}

func TestNow(t *testing.T) {
	if _, err := time.Parse(time.RFC3339, Now()); err != nil {
		t.Errorf("Now() is not RFC3339: %v", err)
	}
}
