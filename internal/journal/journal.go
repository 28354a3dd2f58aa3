// Package journal records completed migrations in a local SQLite database.
//
// The journal is append-only. It is informational: the wiki stays the source
// of truth, and nothing reads the journal back to decide what to migrate.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/calvinalkan/docmigrate/internal/migrate"
)

// currentSchemaVersion is stored in SQLite's user_version pragma.
// Increment this whenever the schema changes.
const currentSchemaVersion = 1

// sqliteBusyTimeout is the time SQLite waits when the database is locked.
const sqliteBusyTimeout = 5000 // milliseconds

// Error variables for journal operations.
var (
	ErrPathEmpty     = errors.New("journal path is empty")
	ErrSchemaVersion = errors.New("journal schema is newer than this binary")
	ErrClosed        = errors.New("journal is closed")
)

// Entry is one recorded migration.
type Entry struct {
	ID         string
	DocumentID string
	Title      string
	Category   string
	MigratedAt time.Time
}

// Journal is an open journal database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

var _ migrate.Recorder = (*Journal)(nil)

// Open opens (creating if needed) the journal at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, ErrPathEmpty
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	err = prepare(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Journal{db: db, now: time.Now}, nil
}

// prepare applies pragmas and creates the schema on first use.
func prepare(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`, sqliteBusyTimeout))
	if err != nil {
		return fmt.Errorf("apply pragmas: %w", err)
	}

	var version int

	err = db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	switch {
	case version == currentSchemaVersion:
		return nil
	case version > currentSchemaVersion:
		return fmt.Errorf("%w: have %d, support %d", ErrSchemaVersion, version, currentSchemaVersion)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS migrations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			migrated_at INTEGER NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_migrations_document ON migrations(document_id)",
		fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion),
	}

	for i, stmt := range statements {
		_, err = tx.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	return nil
}

// Record appends a completed migration.
func (j *Journal) Record(ctx context.Context, documentID string, res migrate.Result) error {
	if j.db == nil {
		return ErrClosed
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO migrations (id, document_id, title, category, migrated_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), documentID, res.Title, res.Category, j.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record migration of %s: %w", documentID, err)
	}

	return nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if j.db == nil {
		return nil, ErrClosed
	}

	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, document_id, title, category, migrated_at FROM migrations ORDER BY seq DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var entries []Entry

	for rows.Next() {
		var (
			e  Entry
			ns int64
		)

		err = rows.Scan(&e.ID, &e.DocumentID, &e.Title, &e.Category, &ns)
		if err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}

		e.MigratedAt = time.Unix(0, ns)
		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}

	return entries, nil
}

// Close releases the database. Further calls return ErrClosed.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}

	err := j.db.Close()
	j.db = nil

	if err != nil {
		return fmt.Errorf("close journal: %w", err)
	}

	return nil
}
