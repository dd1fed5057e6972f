// Package cache persists file digests in SQLite so repeated runs over a
// mostly unchanged tree skip rehashing. Rows are keyed by path and
// validated against size and mtime; any change invalidates the row.
package cache

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache is a digest store backed by a single SQLite file.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path and applies pending
// migrations. The connection is limited to a single writer to avoid
// SQLITE_BUSY under WAL.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("goose up: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached digest for path if size and mtime still match.
func (c *Cache) Lookup(path string, size int64, mtime time.Time) (string, bool) {
	var digest string
	err := c.db.QueryRow(
		`SELECT digest FROM digest_cache WHERE path = ? AND size = ? AND mtime_ns = ?`,
		path, size, mtime.UnixNano(),
	).Scan(&digest)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Warn("digest cache lookup", "path", path, "error", err)
		}
		return "", false
	}
	return digest, true
}

// Store upserts the digest for path under the current size and mtime.
func (c *Cache) Store(path string, size int64, mtime time.Time, digest string) error {
	_, err := c.db.Exec(
		`INSERT INTO digest_cache (path, size, mtime_ns, digest)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   size = excluded.size, mtime_ns = excluded.mtime_ns, digest = excluded.digest`,
		path, size, mtime.UnixNano(), digest,
	)
	if err != nil {
		return fmt.Errorf("store digest for %s: %w", path, err)
	}
	return nil
}
