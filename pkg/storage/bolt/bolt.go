// Package bolt implements a metadata.Storer on a bbolt embedded key-value file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/papercomputeco/lookbook/pkg/metadata"
)

var bucketImages = []byte("images")

type value struct {
	Link string `json:"link"`
}

// Driver stores one JSON value per image ID in the "images" bucket.
type Driver struct {
	db *bolt.DB
}

// Ensure Driver implements metadata.Storer.
var _ metadata.Storer = (*Driver)(nil)

// NewDriver opens (or creates) the bolt file at path.
func NewDriver(path string) (*Driver, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketImages)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create images bucket: %w", err)
	}

	return &Driver{db: db}, nil
}

// Put implements metadata.Storer.
func (d *Driver) Put(_ context.Context, rec *metadata.Record) error {
	if err := metadata.Validate(rec); err != nil {
		return err
	}

	enc, err := json.Marshal(value{Link: rec.Link})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).Put([]byte(rec.ID), enc)
	})
}

// Get implements metadata.Storer.
func (d *Driver) Get(_ context.Context, id string) (*metadata.Entry, error) {
	var entry *metadata.Entry

	err := d.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketImages).Get([]byte(id))
		if raw == nil {
			return metadata.ErrNotFound{ID: id}
		}

		var v value
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode entry %s: %w", id, err)
		}
		entry = &metadata.Entry{ID: id, Link: v.Link}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List implements metadata.Storer. Keys are iterated in byte order.
func (d *Driver) List(_ context.Context) ([]*metadata.Entry, error) {
	entries := []*metadata.Entry{}

	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).ForEach(func(k, raw []byte) error {
			var v value
			if err := json.Unmarshal(raw, &v); err != nil {
				// Skip malformed entries instead of failing the whole listing
				return nil
			}
			entries = append(entries, &metadata.Entry{ID: string(k), Link: v.Link})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close implements metadata.Storer.
func (d *Driver) Close() error {
	return d.db.Close()
}
