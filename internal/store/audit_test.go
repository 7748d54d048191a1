package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db.Pool); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db.Pool); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	run, err := StartRun(db, "solar panel")
	if err != nil {
		t.Fatal(err)
	}
	if run.ID() == 0 {
		t.Fatal("expected a run id")
	}

	ctx := context.Background()
	run.PageScraped(ctx, 1, 25, 20)
	run.ListingSkipped(ctx, 1, "no-company", "")
	run.ListingSkipped(ctx, 2, "no-company", "")
	run.ListingSkipped(ctx, 2, "extract-error", "/tmp/snap.png")

	if err := run.Finish("ok", 2, 20, 3, 1); err != nil {
		t.Fatal(err)
	}

	runs, err := RecentRuns(db, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.Keyword != "solar panel" || got.Outcome != "ok" {
		t.Errorf("run = %+v", got)
	}
	if got.Accepted != 20 || got.Skipped != 3 || got.Dupes != 1 || got.Pages != 2 {
		t.Errorf("counters = %+v", got)
	}
	if got.FinishedAt == "" {
		t.Error("finished_at not set")
	}

	reasons, err := SkipReasons(db, run.ID())
	if err != nil {
		t.Fatal(err)
	}
	if reasons["no-company"] != 2 || reasons["extract-error"] != 1 {
		t.Errorf("skip reasons = %v", reasons)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	for _, kw := range []string{"first", "second", "third"} {
		if _, err := StartRun(db, kw); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := RecentRuns(db, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want limit 2", len(runs))
	}
	if runs[0].Keyword != "third" || runs[1].Keyword != "second" {
		t.Errorf("order = %q, %q", runs[0].Keyword, runs[1].Keyword)
	}
}
