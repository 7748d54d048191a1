// Package store keeps a local run-audit trail in sqlite: one row per
// scrape run plus the skip and page events recorded along the way.
// Leads themselves go to the CSV, not here.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Run struct {
	ID         int64
	Keyword    string
	StartedAt  string
	FinishedAt string
	Outcome    string // ok | auth-failed | error | cancelled
	Pages      int
	Accepted   int
	Skipped    int
	Dupes      int
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  keyword TEXT NOT NULL,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL DEFAULT '',
  outcome TEXT NOT NULL DEFAULT '',
  pages INTEGER NOT NULL DEFAULT 0,
  accepted INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  dupes INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS run_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id INTEGER NOT NULL REFERENCES runs(id),
  at TEXT NOT NULL,
  kind TEXT NOT NULL,
  page INTEGER NOT NULL DEFAULT 0,
  reason TEXT NOT NULL DEFAULT '',
  snapshot TEXT NOT NULL DEFAULT '',
  found INTEGER NOT NULL DEFAULT 0,
  accepted INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id);`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

// RunLog is the audit handle for a single run. It satisfies the
// pipeline's event sink; write failures are swallowed by the sink
// methods so a broken audit DB never aborts a scrape.
type RunLog struct {
	db    *sql.DB
	runID int64
}

func StartRun(db *DB, keyword string) (*RunLog, error) {
	res, err := db.Pool.Exec(
		`INSERT INTO runs (keyword, started_at) VALUES (?, ?);`,
		keyword, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return &RunLog{db: db.Pool, runID: id}, nil
}

func (r *RunLog) ID() int64 { return r.runID }

func (r *RunLog) Finish(outcome string, pages, accepted, skipped, dupes int) error {
	_, err := r.db.Exec(`
UPDATE runs SET finished_at = ?, outcome = ?, pages = ?, accepted = ?, skipped = ?, dupes = ?
WHERE id = ?;`,
		now(), outcome, pages, accepted, skipped, dupes, r.runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", r.runID, err)
	}
	return nil
}

func (r *RunLog) ListingSkipped(ctx context.Context, page int, reason, snapshot string) {
	_, _ = r.db.ExecContext(ctx, `
INSERT INTO run_events (run_id, at, kind, page, reason, snapshot)
VALUES (?, ?, 'skip', ?, ?, ?);`,
		r.runID, now(), page, reason, snapshot,
	)
}

func (r *RunLog) PageScraped(ctx context.Context, page, found, accepted int) {
	_, _ = r.db.ExecContext(ctx, `
INSERT INTO run_events (run_id, at, kind, page, found, accepted)
VALUES (?, ?, 'page', ?, ?, ?);`,
		r.runID, now(), page, found, accepted,
	)
}

// RecentRuns returns up to limit runs, newest first.
func RecentRuns(db *DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(`
SELECT id, keyword, started_at, finished_at, outcome, pages, accepted, skipped, dupes
FROM runs ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Keyword, &r.StartedAt, &r.FinishedAt,
			&r.Outcome, &r.Pages, &r.Accepted, &r.Skipped, &r.Dupes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SkipReasons aggregates skip events for one run by reason.
func SkipReasons(db *DB, runID int64) (map[string]int, error) {
	rows, err := db.Pool.Query(`
SELECT reason, COUNT(*) FROM run_events
WHERE run_id = ? AND kind = 'skip' GROUP BY reason;`, runID)
	if err != nil {
		return nil, fmt.Errorf("skip reasons for run %d: %w", runID, err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[reason] = n
	}
	return out, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
