/*
Package sqlite provides the SQLite-backed implementations of the portal's
persistence collaborators.

INTERFACES IMPLEMENTED:
  submission.DocumentStore: submission records, with the uniqueness
                            constraint that guards double submits
  entry.Cache:              the local key-value cache
  entry.Mirror:             the best-effort per-day entry mirror

UNIQUENESS ENFORCEMENT:
  The submissions table's primary key on doc_id - backed by a unique index
  on (worker_id, week) - is the authoritative double-submit guard. The
  workflow's existence check is only an optimization; a lost race lands
  here and comes back as submission.ErrDocumentExists.

WAL MODE:
  Opened with WAL so readers don't block during writes, same trade-off as
  any small single-writer deployment.

USAGE:
  store, err := sqlite.New("./data/timeportal.db")
  if err != nil { ... }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/warp/timeportal/datemath"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/submission"
)

// Store implements the persistence collaborators over one SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Submission documents. doc_id is "{worker_id}_{week}"; the primary
	-- key plus the unique (worker_id, week) index give createSubmission
	-- its fail-if-exists semantics.
	CREATE TABLE IF NOT EXISTS submissions (
		doc_id       TEXT PRIMARY KEY,
		worker_id    TEXT NOT NULL,
		week         TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		total_hours  REAL NOT NULL,
		status       TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_worker_week
		ON submissions(worker_id, week);
	CREATE INDEX IF NOT EXISTS idx_submissions_worker
		ON submissions(worker_id);

	-- Local key-value cache (namespaced keys, JSON string values).
	CREATE TABLE IF NOT EXISTS cache (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Best-effort per-day entry mirror.
	CREATE TABLE IF NOT EXISTS mirror_days (
		worker_id    TEXT NOT NULL,
		date         TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		PRIMARY KEY (worker_id, date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// submission.DocumentStore
// =============================================================================

// Create inserts a submission record. Fails with
// submission.ErrDocumentExists when the doc id or worker-week pair is
// already taken; it never overwrites.
func (s *Store) Create(ctx context.Context, docID string, rec submission.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", docID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions
			(doc_id, worker_id, week, payload_json, total_hours, status, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		docID, rec.WorkerID, rec.Week, string(payload), rec.TotalHours, rec.Status,
		rec.SubmittedAt.UTC().Format(time.RFC3339), rec.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return submission.ErrDocumentExists
		}
		return fmt.Errorf("insert submission %s: %w", docID, err)
	}
	return nil
}

// Get returns the submission stored under docID, if any.
func (s *Store) Get(ctx context.Context, docID string) (submission.Record, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM submissions WHERE doc_id = ?`, docID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return submission.Record{}, false, nil
	}
	if err != nil {
		return submission.Record{}, false, fmt.Errorf("query submission %s: %w", docID, err)
	}

	var rec submission.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return submission.Record{}, false, fmt.Errorf("decode submission %s: %w", docID, err)
	}
	return rec, true, nil
}

// ListByWorker returns all submissions for a worker, oldest week first.
func (s *Store) ListByWorker(ctx context.Context, workerID string) ([]submission.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload_json FROM submissions WHERE worker_id = ? ORDER BY week`, workerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions for %s: %w", workerID, err)
	}
	defer rows.Close()

	var records []submission.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec submission.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode submission for %s: %w", workerID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// entry.Cache
// =============================================================================

// GetCacheValue reads a cache key.
func (s *Store) GetCacheValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cache %s: %w", key, err)
	}
	return value, true, nil
}

// SetCacheValue writes a cache key. Atomic per key.
func (s *Store) SetCacheValue(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO cache (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// Cache returns the store's entry.Cache view.
func (s *Store) Cache() entry.Cache { return cacheView{s} }

type cacheView struct{ s *Store }

func (c cacheView) Get(key string) (string, bool, error) { return c.s.GetCacheValue(key) }
func (c cacheView) Set(key, value string) error          { return c.s.SetCacheValue(key, value) }

// =============================================================================
// entry.Mirror
// =============================================================================

// SaveDay upserts (or, for a nil entry, deletes) the mirrored copy of one
// day's entry.
func (s *Store) SaveDay(ctx context.Context, userID string, d datemath.Date, e *entry.TimeEntry) error {
	if e == nil {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM mirror_days WHERE worker_id = ? AND date = ?`, userID, d.String())
		if err != nil {
			return fmt.Errorf("mirror delete %s/%s: %w", userID, d, err)
		}
		return nil
	}

	hours, _ := e.Hours.Float64()
	payload, err := json.Marshal(map[string]any{
		"hours":            hours,
		"isTimeOff":        e.IsTimeOff,
		"managerApproved":  e.ManagerApproved,
		"overtimeApproved": e.OvertimeApproved,
		"shortDayApproved": e.ShortDayApproved,
		"timestamp":        e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("mirror encode %s/%s: %w", userID, d, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mirror_days (worker_id, date, payload_json, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(worker_id, date) DO UPDATE
			SET payload_json = excluded.payload_json, updated_at = excluded.updated_at`,
		userID, d.String(), string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("mirror write %s/%s: %w", userID, d, err)
	}
	return nil
}
