package metadata

import (
	"context"
	"errors"
)

// Storer defines the interface for recording and retrieving image metadata.
// Only the identifier and public link of a record are persisted.
type Storer interface {
	// Put records the entry for rec, overwriting any entry with the same ID.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves an entry by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns all entries, ordered by ID.
	List(ctx context.Context) ([]*Entry, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNilRecord is returned by Put when rec is nil or has no ID.
var ErrNilRecord = errors.New("nil record or empty id")

// ErrNotFound is returned when an entry doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "image not found"
	}

	return "image not found: " + e.ID
}

// Validate reports whether rec can be stored.
func Validate(rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrNilRecord
	}
	return nil
}
