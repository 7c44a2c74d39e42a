package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore stores pages and builds in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the database at path. Use MemoryPath for
// an in-memory store.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("state database path is required")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		build_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		issues INTEGER NOT NULL,
		report BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// PageFingerprint returns the stored fingerprint of a page.
func (s *SQLiteStore) PageFingerprint(ctx context.Context, path string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fp string
	err := s.db.QueryRowContext(ctx, "SELECT fingerprint FROM pages WHERE path = ?", path).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query page %s: %w", path, err)
	}
	return fp, true, nil
}

// PutPage inserts or replaces a page record.
func (s *SQLiteStore) PutPage(ctx context.Context, p PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (path, fingerprint, build_id, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET fingerprint = excluded.fingerprint, build_id = excluded.build_id, updated_at = excluded.updated_at`,
		p.Path, p.Fingerprint, p.BuildID, p.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert page %s: %w", p.Path, err)
	}
	return nil
}

// DeletePage forgets a page.
func (s *SQLiteStore) DeletePage(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete page %s: %w", path, err)
	}
	return nil
}

// Pages lists every known page ordered by path.
func (s *SQLiteStore) Pages(ctx context.Context) ([]PageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT path, fingerprint, build_id, updated_at FROM pages ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var updated int64
		if err := rows.Scan(&p.Path, &p.Fingerprint, &p.BuildID, &updated); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.UpdatedAt = time.UnixMilli(updated)
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

// RecordBuild stores a finished build.
func (s *SQLiteStore) RecordBuild(ctx context.Context, b BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started_at, finished_at, outcome, pages, issues, report) VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.StartedAt.UnixMilli(), b.FinishedAt.UnixMilli(), b.Outcome, b.Pages, b.Issues, b.Report,
	)
	if err != nil {
		return fmt.Errorf("insert build %s: %w", b.ID, err)
	}
	return nil
}

// RecentBuilds returns up to limit builds, newest first.
func (s *SQLiteStore) RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, outcome, pages, issues, report FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []BuildRecord
	for rows.Next() {
		var b BuildRecord
		var started, finished int64
		if err := rows.Scan(&b.ID, &started, &finished, &b.Outcome, &b.Pages, &b.Issues, &b.Report); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.StartedAt = time.UnixMilli(started)
		b.FinishedAt = time.UnixMilli(finished)
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// Build returns the most recent build whose id starts with prefix.
func (s *SQLiteStore) Build(ctx context.Context, prefix string) (BuildRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b BuildRecord
	var started, finished int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, outcome, pages, issues, report FROM builds WHERE substr(id, 1, length(?)) = ? ORDER BY started_at DESC, rowid DESC LIMIT 1",
		prefix, prefix,
	).Scan(&b.ID, &started, &finished, &b.Outcome, &b.Pages, &b.Issues, &b.Report)
	if errors.Is(err, sql.ErrNoRows) {
		return BuildRecord{}, false, nil
	}
	if err != nil {
		return BuildRecord{}, false, fmt.Errorf("query build %s: %w", prefix, err)
	}
	b.StartedAt = time.UnixMilli(started)
	b.FinishedAt = time.UnixMilli(finished)
	return b, true, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
