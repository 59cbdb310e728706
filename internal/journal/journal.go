// Package journal keeps a SQLite record of every file a run touched, so a
// vault's patch history can be reviewed after the fact.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status values recorded per file.
const (
	StatusWritten   = "written"
	StatusDryRun    = "dry-run"
	StatusUnchanged = "unchanged"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Entry is one file outcome within a run.
type Entry struct {
	RunID      string
	Recipe     string
	Vault      string
	Path       string
	Status     string
	BeforeSHA  string
	AfterSHA   string
	BeforeSize int
	AfterSize  int
	BackupPath string
	Detail     string
	At         time.Time
}

// Journal is an append-only change log.
type Journal struct {
	db     *sql.DB
	insert *sql.Stmt
}

const schema = `
CREATE TABLE IF NOT EXISTS changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	recipe TEXT NOT NULL,
	vault TEXT NOT NULL,
	path TEXT NOT NULL,
	status TEXT NOT NULL,
	before_sha TEXT,
	after_sha TEXT,
	before_size INTEGER DEFAULT 0,
	after_size INTEGER DEFAULT 0,
	backup TEXT,
	detail TEXT,
	at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_run ON changes(run_id);
CREATE INDEX IF NOT EXISTS idx_changes_path ON changes(vault, path);
`

// DefaultPath returns ~/.agentic-research/vaultpatch/journal.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".agentic-research", "vaultpatch", "journal.db"), nil
}

// Open opens or creates the journal at dbPath. ":memory:" is accepted.
func Open(dbPath string) (*Journal, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// one connection: :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	insert, err := db.Prepare(`
		INSERT INTO changes (run_id, recipe, vault, path, status, before_sha, after_sha,
			before_size, after_size, backup, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &Journal{db: db, insert: insert}, nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Digest returns the hex SHA-256 of b, or "" for nil.
func Digest(b []byte) string {
	if b == nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Record appends e. A zero At is set to now.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := j.insert.ExecContext(ctx,
		e.RunID, e.Recipe, e.Vault, e.Path, e.Status, e.BeforeSHA, e.AfterSHA,
		e.BeforeSize, e.AfterSize, e.BackupPath, e.Detail, e.At.UnixNano())
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Path, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-empty path
// restricts the result to that vault-relative file.
func (j *Journal) Recent(ctx context.Context, limit int, path string) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT run_id, recipe, vault, path, status, COALESCE(before_sha, ''), COALESCE(after_sha, ''),
		before_size, after_size, COALESCE(backup, ''), COALESCE(detail, ''), at
		FROM changes`
	args := []any{}
	if path != "" {
		q += ` WHERE path = ?`
		args = append(args, path)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.RunID, &e.Recipe, &e.Vault, &e.Path, &e.Status, &e.BeforeSHA, &e.AfterSHA,
			&e.BeforeSize, &e.AfterSize, &e.BackupPath, &e.Detail, &at); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database.
func (j *Journal) Close() error {
	_ = j.insert.Close()
	return j.db.Close()
}
