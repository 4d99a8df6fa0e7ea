// Package store keeps a history of round-trip checks in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Check is one recorded round-trip check of a single chart.
type Check struct {
	ID            string
	RunID         string
	Path          string
	SHA256        string
	FormatVersion int
	OK            bool
	DiffCount     int
	Error         string
	Duration      time.Duration
	CheckedAt     time.Time
}

// Run summarises all checks sharing a run id.
type Run struct {
	ID        string
	Total     int
	Failed    int
	StartedAt time.Time
}

type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS checks (
			id             TEXT PRIMARY KEY,
			run_id         TEXT NOT NULL,
			path           TEXT NOT NULL,
			sha256         TEXT NOT NULL,
			format_version INTEGER NOT NULL DEFAULT 0,
			ok             INTEGER NOT NULL,
			diff_count     INTEGER NOT NULL DEFAULT 0,
			error          TEXT NOT NULL DEFAULT '',
			duration_ms    INTEGER NOT NULL DEFAULT 0,
			checked_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checks_run ON checks(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_checks_sha ON checks(sha256)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// NewRunID returns an id that sorts after every run started before it.
func (s *Store) NewRunID() string {
	return s.newID(time.Now())
}

// Record inserts c, filling in its id and timestamp when they are empty.
func (s *Store) Record(ctx context.Context, c Check) (Check, error) {
	if c.RunID == "" {
		return Check{}, fmt.Errorf("record %s: missing run id", c.Path)
	}
	if c.CheckedAt.IsZero() {
		c.CheckedAt = time.Now()
	}
	if c.ID == "" {
		c.ID = s.newID(c.CheckedAt)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checks (id, run_id, path, sha256, format_version, ok, diff_count, error, duration_ms, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RunID, c.Path, c.SHA256, c.FormatVersion, c.OK, c.DiffCount, c.Error,
		c.Duration.Milliseconds(), c.CheckedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Check{}, fmt.Errorf("record %s: %w", c.Path, err)
	}
	return c, nil
}

// List returns up to limit checks, newest first. A run id narrows the result to one run.
func (s *Store) List(ctx context.Context, runID string, limit int) ([]Check, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, run_id, path, sha256, format_version, ok, diff_count, error, duration_ms, checked_at FROM checks`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY checked_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var out []Check
	for rows.Next() {
		var (
			c          Check
			durationMS int64
			checkedAt  string
		)
		if err := rows.Scan(&c.ID, &c.RunID, &c.Path, &c.SHA256, &c.FormatVersion, &c.OK,
			&c.DiffCount, &c.Error, &durationMS, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		c.Duration = time.Duration(durationMS) * time.Millisecond
		if c.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt); err != nil {
			return nil, fmt.Errorf("check %s: bad timestamp %q: %w", c.ID, checkedAt, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Runs returns up to limit run summaries, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, COUNT(*), SUM(CASE WHEN ok THEN 0 ELSE 1 END), MIN(checked_at)
		 FROM checks GROUP BY run_id ORDER BY run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			started string
		)
		if err := rows.Scan(&r.ID, &r.Total, &r.Failed, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", r.ID, started, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastBySHA returns the newest check of content with the given hash.
func (s *Store) LastBySHA(ctx context.Context, sha string) (Check, bool, error) {
	var (
		c          Check
		durationMS int64
		checkedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, path, sha256, format_version, ok, diff_count, error, duration_ms, checked_at
		 FROM checks WHERE sha256 = ? ORDER BY checked_at DESC, id DESC LIMIT 1`, sha).
		Scan(&c.ID, &c.RunID, &c.Path, &c.SHA256, &c.FormatVersion, &c.OK, &c.DiffCount, &c.Error, &durationMS, &checkedAt)
	if err == sql.ErrNoRows {
		return Check{}, false, nil
	}
	if err != nil {
		return Check{}, false, fmt.Errorf("lookup %s: %w", sha, err)
	}
	c.Duration = time.Duration(durationMS) * time.Millisecond
	if c.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt); err != nil {
		return Check{}, false, fmt.Errorf("check %s: bad timestamp %q: %w", c.ID, checkedAt, err)
	}
	return c, true, nil
}
