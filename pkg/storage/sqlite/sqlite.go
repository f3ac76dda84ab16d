// Package sqlite implements a metadata.Storer on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/lookbook/pkg/metadata"
)

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id   TEXT PRIMARY KEY,
	link TEXT NOT NULL
)`

// Driver stores entries in the images table.
type Driver struct {
	db *sql.DB
}

// Ensure Driver implements metadata.Storer.
var _ metadata.Storer = (*Driver)(nil)

// NewDriver opens the database at path, creating the schema if needed.
// Use ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, path string) (*Driver, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %s: %w", path, err)
	}
	// Each :memory: connection is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Put implements metadata.Storer.
func (d *Driver) Put(ctx context.Context, rec *metadata.Record) error {
	if err := metadata.Validate(rec); err != nil {
		return err
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO images (id, link) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET link = excluded.link`,
		rec.ID, rec.Link,
	)
	if err != nil {
		return fmt.Errorf("upsert image %s: %w", rec.ID, err)
	}
	return nil
}

// Get implements metadata.Storer.
func (d *Driver) Get(ctx context.Context, id string) (*metadata.Entry, error) {
	entry := &metadata.Entry{ID: id}

	err := d.db.QueryRowContext(ctx, `SELECT link FROM images WHERE id = ?`, id).Scan(&entry.Link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metadata.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query image %s: %w", id, err)
	}
	return entry, nil
}

// List implements metadata.Storer.
func (d *Driver) List(ctx context.Context) ([]*metadata.Entry, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, link FROM images ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	entries := []*metadata.Entry{}
	for rows.Next() {
		e := &metadata.Entry{}
		if err := rows.Scan(&e.ID, &e.Link); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close implements metadata.Storer.
func (d *Driver) Close() error {
	return d.db.Close()
}
