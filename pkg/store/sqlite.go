package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/page"
)

const backendSQLite = "sqlite"

// SQLiteStore keeps pages in a single SQLite database file.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sqlite store requires a dsn")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, storeErr(err, "create db directory")
	}

	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, storeErr(err, "open sqlite")
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, storeErr(err, "migrate")
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			grid_version INTEGER NOT NULL DEFAULT 0,
			data BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_updated ON pages(updated_at)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (doc *page.Document, err error) {
	defer observe(ctx, backendSQLite, "get", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return nil, err
	}

	var data []byte
	err = s.conn.QueryRowContext(ctx, `SELECT data FROM pages WHERE id = ?`, id).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeErr(err, "query page %q", id)
	}
	return decode(id, data)
}

func (s *SQLiteStore) Put(ctx context.Context, doc *page.Document) (err error) {
	defer observe(ctx, backendSQLite, "put", time.Now(), &err)
	if err := checkPut(doc); err != nil {
		return err
	}

	data, err := encode(doc)
	if err != nil {
		return err
	}
	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO pages (id, title, grid_version, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			grid_version = excluded.grid_version,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		doc.ID, doc.Title, doc.GridVersion, data, updated)
	if err != nil {
		return storeErr(err, "upsert page %q", doc.ID)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, backendSQLite, "delete", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id); err != nil {
		return storeErr(err, "delete page %q", id)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) (ids []string, err error) {
	defer observe(ctx, backendSQLite, "list", time.Now(), &err)

	rows, err := s.conn.QueryContext(ctx, `SELECT id FROM pages ORDER BY id`)
	if err != nil {
		return nil, storeErr(err, "list pages")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err, "scan page id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list pages")
	}
	return ids, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

var _ Store = (*SQLiteStore)(nil)
