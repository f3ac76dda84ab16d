// Package metadata defines image metadata records and the store they are
// recorded in.
package metadata

import "time"

// Record describes a single uploaded image. It is created once per successful
// upload and never mutated.
type Record struct {
	// ID is the locally generated unique identifier, also used as the upload title
	ID string `json:"id"`

	// HostID is the image host's own identifier
	HostID string `json:"host_id,omitempty"`

	// DeleteHash is the delete-capability token returned by the host
	DeleteHash string `json:"deletehash"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// Type is the MIME content type (e.g., "image/jpeg")
	Type string `json:"type"`

	Width  int   `json:"width"`
	Height int   `json:"height"`
	Size   int64 `json:"size"` // bytes

	// Link is the public URL of the hosted image
	Link string `json:"link"`

	CreatedAt time.Time `json:"created_at"`
}

// Entry is the persisted projection of a Record: its identifier and link.
type Entry struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// Entry returns the persisted projection of r.
func (r *Record) Entry() *Entry {
	return &Entry{ID: r.ID, Link: r.Link}
}
