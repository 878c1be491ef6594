package spacetraveling

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/spacetraveling/pages"
)

// snapshotTimeLayout is fixed-width so generated_at sorts as text.
const snapshotTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps a SQLite database holding built detail pages so they survive
// restarts. It implements pages.Snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets page reads proceed while a rebuild writes; the busy timeout
	// makes concurrent writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS page_snapshots (
    uid TEXT PRIMARY KEY,
    post TEXT NOT NULL,
    generated_at TEXT NOT NULL
);
`)
	return err
}

// LoadSnapshot returns the stored page for uid, or pages.ErrNotFound.
func (s *Store) LoadSnapshot(ctx context.Context, uid string) (pages.Snapshot, error) {
	var post, generatedAt string
	err := s.db.QueryRowContext(ctx, `SELECT post, generated_at FROM page_snapshots WHERE uid = ?`, uid).
		Scan(&post, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pages.Snapshot{}, pages.ErrNotFound
	}
	if err != nil {
		return pages.Snapshot{}, err
	}
	snap := pages.Snapshot{UID: uid}
	if err := json.Unmarshal([]byte(post), &snap.Post); err != nil {
		return pages.Snapshot{}, fmt.Errorf("decode snapshot %q: %w", uid, err)
	}
	snap.GeneratedAt, err = time.Parse(snapshotTimeLayout, generatedAt)
	if err != nil {
		return pages.Snapshot{}, fmt.Errorf("decode snapshot %q: %w", uid, err)
	}
	return snap, nil
}

// SaveSnapshot upserts a built page.
func (s *Store) SaveSnapshot(ctx context.Context, snap pages.Snapshot) error {
	post, err := json.Marshal(snap.Post)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO page_snapshots (uid, post, generated_at) VALUES (?, ?, ?)`,
		snap.UID, string(post), snap.GeneratedAt.UTC().Format(snapshotTimeLayout))
	return err
}

// DeleteSnapshot removes the page for uid.
func (s *Store) DeleteSnapshot(ctx context.Context, uid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM page_snapshots WHERE uid = ?`, uid)
	return err
}

// SnapshotUIDs returns the uids of all stored pages, most recently built first.
func (s *Store) SnapshotUIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uid FROM page_snapshots ORDER BY generated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}
