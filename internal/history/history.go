// Package history keeps an append-only log of sync attempts in SQLite.
// It exists for observability (the `pushbox history` command); sync
// decisions never read it back.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pushbox/pushbox/internal/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS attempts (
	id TEXT PRIMARY KEY,
	ts TEXT NOT NULL, -- RFC3339 UTC
	mode TEXT NOT NULL,
	path TEXT NOT NULL,
	kind TEXT NOT NULL,
	outcome TEXT NOT NULL,
	commit_hash TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	error_kind TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_attempts_ts ON attempts(ts);
CREATE INDEX IF NOT EXISTS idx_attempts_path ON attempts(path);
`

const (
	OutcomeSynced = "synced"
	OutcomeRetry  = "retry"
)

// Attempt is one commit/push attempt for one entry.
type Attempt struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Mode       string    `json:"mode"`
	Path       string    `json:"path"`
	Kind       string    `json:"kind"`
	Outcome    string    `json:"outcome"`
	CommitHash string    `json:"commit,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
}

// attemptRow is the sqlite image of an Attempt. Timestamps travel as
// RFC3339 text so both sqlite drivers round-trip them the same way.
type attemptRow struct {
	ID         string `db:"id"`
	Ts         string `db:"ts"`
	Mode       string `db:"mode"`
	Path       string `db:"path"`
	Kind       string `db:"kind"`
	Outcome    string `db:"outcome"`
	CommitHash string `db:"commit_hash"`
	Error      string `db:"error"`
	ErrorKind  string `db:"error_kind"`
}

// Store is the attempt log.
type Store struct {
	db *sqlx.DB
}

// Open creates or opens the attempt log at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := db.NewSqliteDB(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("failed to open history db at %s: %w", dbPath, err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends an attempt. A missing ID or timestamp is filled in.
func (s *Store) Record(a *Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Time.IsZero() {
		a.Time = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO attempts (id, ts, mode, path, kind, outcome, commit_hash, error, error_kind)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Time.UTC().Format(time.RFC3339), a.Mode, a.Path, a.Kind, a.Outcome, a.CommitHash, a.Error, a.ErrorKind,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt for %s: %w", a.Path, err)
	}
	return nil
}

// Recent returns up to n attempts, newest first. Attempts in the same
// second keep their insertion order via the implicit rowid.
func (s *Store) Recent(n int) ([]*Attempt, error) {
	if n <= 0 {
		n = 20
	}

	var rows []attemptRow
	err := s.db.Select(&rows,
		`SELECT id, ts, mode, path, kind, outcome, commit_hash, error, error_kind
		 FROM attempts ORDER BY ts DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}

	attempts := make([]*Attempt, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(time.RFC3339, r.Ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored timestamp for %s: %w", r.Path, err)
		}
		attempts = append(attempts, &Attempt{
			ID:         r.ID,
			Time:       ts,
			Mode:       r.Mode,
			Path:       r.Path,
			Kind:       r.Kind,
			Outcome:    r.Outcome,
			CommitHash: r.CommitHash,
			Error:      r.Error,
			ErrorKind:  r.ErrorKind,
		})
	}
	return attempts, nil
}

// Count returns the number of recorded attempts.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM attempts"); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}
