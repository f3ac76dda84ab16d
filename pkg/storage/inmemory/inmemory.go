// Package inmemory implements an in-memory metadata.Storer.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/papercomputeco/lookbook/pkg/metadata"
)

// Driver keeps entries in a map. It is safe for concurrent use.
type Driver struct {
	mu      sync.RWMutex
	entries map[string]string
}

// Ensure Driver implements metadata.Storer.
var _ metadata.Storer = (*Driver)(nil)

// NewDriver returns an empty Driver.
func NewDriver() *Driver {
	return &Driver{entries: make(map[string]string)}
}

// Put implements metadata.Storer.
func (d *Driver) Put(_ context.Context, rec *metadata.Record) error {
	if err := metadata.Validate(rec); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[rec.ID] = rec.Link
	return nil
}

// Get implements metadata.Storer.
func (d *Driver) Get(_ context.Context, id string) (*metadata.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	link, ok := d.entries[id]
	if !ok {
		return nil, metadata.ErrNotFound{ID: id}
	}
	return &metadata.Entry{ID: id, Link: link}, nil
}

// List implements metadata.Storer.
func (d *Driver) List(_ context.Context) ([]*metadata.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := make([]*metadata.Entry, 0, len(d.entries))
	for id, link := range d.entries {
		entries = append(entries, &metadata.Entry{ID: id, Link: link})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Close implements metadata.Storer.
func (d *Driver) Close() error {
	return nil
}
