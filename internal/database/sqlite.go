// Package database provides sqlite connectivity and the asset repository.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure-Go sqlite driver.
)

// schema contains the DDL executed on every open. IF NOT EXISTS makes it
// safe to run repeatedly.
const schema = `
CREATE TABLE IF NOT EXISTS assets (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    title         TEXT NOT NULL,
    url           TEXT NOT NULL UNIQUE,
    author        TEXT NOT NULL DEFAULT '',
    author_url    TEXT NOT NULL DEFAULT '',
    version       TEXT NOT NULL DEFAULT '',
    last_updated  TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT '',
    godot_version TEXT NOT NULL DEFAULT '',
    support_level TEXT NOT NULL DEFAULT '',
    license       TEXT NOT NULL DEFAULT '',
    icon_url      TEXT NOT NULL DEFAULT '',
    repo_url      TEXT NOT NULL DEFAULT '',
    repo_content  TEXT NOT NULL DEFAULT '',
    summary       TEXT NOT NULL DEFAULT '',
    stars         INTEGER NOT NULL DEFAULT 0,
    last_commit   TEXT NOT NULL DEFAULT '',
    crawled_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    favorite      INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assets_url        ON assets(url);
CREATE INDEX IF NOT EXISTS idx_assets_category   ON assets(category);
CREATE INDEX IF NOT EXISTS idx_assets_stars      ON assets(stars);
CREATE INDEX IF NOT EXISTS idx_assets_favorite   ON assets(favorite);
CREATE INDEX IF NOT EXISTS idx_assets_crawled_at ON assets(crawled_at);
`

// Open opens (or creates) the sqlite database at path, enables WAL mode and
// a busy timeout, and applies the schema.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite supports a single writer; one pooled connection avoids
	// SQLITE_BUSY contention between connections that each need their own
	// PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}
