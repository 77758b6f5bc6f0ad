package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed seeds/writers.sql
var seedWritersSQL string

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS writers (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    bio         TEXT NOT NULL DEFAULT '',
    style       TEXT NOT NULL DEFAULT '',
    attributes  TEXT NOT NULL DEFAULT '{}',
    active      INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    id          TEXT PRIMARY KEY,
    writer_key  TEXT NOT NULL REFERENCES writers(id),
    period      TEXT NOT NULL,
    title       TEXT NOT NULL,
    slug        TEXT NOT NULL DEFAULT '',
    body        TEXT NOT NULL,
    image       BLOB,
    image_mime  TEXT NOT NULL DEFAULT '',
    attributes  TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS horoscopes (
    id          TEXT PRIMARY KEY,
    sign        TEXT NOT NULL,
    period      TEXT NOT NULL,
    text        TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
)`,
	// natural keys
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_writer_period ON articles(writer_key, period)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_horoscopes_sign_period ON horoscopes(sign, period)`,
	// read path
	`CREATE INDEX IF NOT EXISTS idx_articles_period ON articles(period DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_writers_active ON writers(active)`,
}

// MigrateUp creates the schema. It is safe to run on every start.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i, err)
		}
	}
	return nil
}

// Seed inserts the built-in writers. Existing rows are left untouched.
func Seed(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, seedWritersSQL); err != nil {
		return fmt.Errorf("seed writers: %w", err)
	}
	return nil
}

// MigrateDown drops every table. Use with caution: all content is lost.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`DROP TABLE IF EXISTS articles`,
		`DROP TABLE IF EXISTS horoscopes`,
		`DROP TABLE IF EXISTS writers`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}
