package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotIndexed is returned by LoadIndex when nothing is cached for a root.
var ErrNotIndexed = errors.New("resource index not cached")

// Cache persists resource indexes in a sqlite database, so that large game
// directories need not be walked on every run.
type Cache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS indexes (
	root TEXT PRIMARY KEY,
	built INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS resources (
	root TEXT NOT NULL,
	name TEXT NOT NULL,
	path TEXT NOT NULL,
	PRIMARY KEY (root, name)
);
`

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// SaveIndex replaces the cached index for ix.Root.
func (c *Cache) SaveIndex(ctx context.Context, ix *Index) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM resources WHERE root = ?", ix.Root); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO resources (root, name, path) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for name, p := range ix.paths {
		if _, err := stmt.ExecContext(ctx, ix.Root, name, p); err != nil {
			return fmt.Errorf("failed to save %s: %w", name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO indexes (root, built) VALUES (?, ?)",
		ix.Root, ix.Built.UnixNano(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadIndex returns the cached index for root.
func (c *Cache) LoadIndex(ctx context.Context, root string) (*Index, error) {
	var built int64
	err := c.db.QueryRowContext(ctx, "SELECT built FROM indexes WHERE root = ?", root).Scan(&built)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, root)
	}
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, "SELECT name, path FROM resources WHERE root = ?", root)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ix := &Index{paths: make(map[string]string), Root: root, Built: time.Unix(0, built)}
	for rows.Next() {
		var name, p string
		if err := rows.Scan(&name, &p); err != nil {
			return nil, err
		}
		ix.paths[name] = p
	}
	return ix, rows.Err()
}
