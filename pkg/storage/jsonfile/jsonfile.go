// Package jsonfile implements a metadata.Storer backed by a single JSON
// object on disk mapping identifier to {"link": url}.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/metadata"
)

// DefaultPath is the store location relative to the working directory.
const DefaultPath = "public_Image_Url/publicUrl.json"

type fileEntry struct {
	Link string `json:"link"`
}

// Driver is a JSON file backed metadata store. Every Put is a full
// read-modify-write of the file, serialized within the process and replaced
// atomically via rename. Writers in other processes can still interleave.
type Driver struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// Ensure Driver implements metadata.Storer.
var _ metadata.Storer = (*Driver)(nil)

// NewDriver returns a Driver for path. The file is created on first Put.
func NewDriver(path string, logger *zap.Logger) *Driver {
	if path == "" {
		path = DefaultPath
	}
	return &Driver{path: path, logger: logger}
}

// Path returns the backing file path.
func (d *Driver) Path() string {
	return d.path
}

// Put implements metadata.Storer.
func (d *Driver) Put(ctx context.Context, rec *metadata.Record) error {
	if err := metadata.Validate(rec); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.load()
	if err != nil {
		return err
	}

	entry, err := json.Marshal(fileEntry{Link: rec.Link})
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", rec.ID, err)
	}
	data[rec.ID] = entry

	if err := d.write(data); err != nil {
		return err
	}

	d.logger.Debug("recorded image metadata",
		zap.String("id", rec.ID),
		zap.String("path", d.path),
		zap.Int("entries", len(data)),
	)
	return nil
}

// Get implements metadata.Storer.
func (d *Driver) Get(_ context.Context, id string) (*metadata.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.load()
	if err != nil {
		return nil, err
	}

	raw, ok := data[id]
	if !ok {
		return nil, metadata.ErrNotFound{ID: id}
	}

	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode entry %s in %s: %w", id, d.path, err)
	}
	return &metadata.Entry{ID: id, Link: e.Link}, nil
}

// List implements metadata.Storer.
func (d *Driver) List(_ context.Context) ([]*metadata.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.load()
	if err != nil {
		return nil, err
	}

	entries := make([]*metadata.Entry, 0, len(data))
	for id, raw := range data {
		var e fileEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			d.logger.Warn("skipping malformed store entry",
				zap.String("id", id),
				zap.String("path", d.path),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, &metadata.Entry{ID: id, Link: e.Link})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return entries, nil
}

// Close implements metadata.Storer. There is nothing to release.
func (d *Driver) Close() error {
	return nil
}

// load reads the store as undecoded entries, so entries of any shape are
// written back untouched. A missing file, or one that is not a JSON object,
// yields an empty store.
func (d *Driver) load() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", d.path, err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		d.logger.Warn("store file is not a valid JSON object, starting with an empty store",
			zap.String("path", d.path),
			zap.Error(err),
		)
		return map[string]json.RawMessage{}, nil
	}
	if data == nil {
		data = map[string]json.RawMessage{}
	}
	return data, nil
}

// write replaces the store file with data via a temp file and rename.
func (d *Driver) write(data map[string]json.RawMessage) error {
	out, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("replace store %s: %w", d.path, err)
	}
	return nil
}
