// Package upload drives the image upload workflow: for each selected file it
// generates an identifier, uploads the image and records its public link.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/images"
	"github.com/papercomputeco/lookbook/pkg/imgur"
	"github.com/papercomputeco/lookbook/pkg/metadata"
)

// Uploader sends an image to an image host.
type Uploader interface {
	Upload(ctx context.Context, img imgur.Image, title string) (*metadata.Record, error)
}

// File is one user-selected image.
type File struct {
	Name string
	Data []byte
}

// ReadFile loads a File from disk.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Result is the outcome for a single file.
type Result struct {
	// Name is the original file name
	Name string

	// ID is the generated identifier, set even when the upload fails
	ID string

	// Record is set when the upload succeeded
	Record *metadata.Record

	// Err is the inspection or upload failure
	Err error

	// StoreErr is a failure to record an uploaded image. The image is still
	// hosted and Record is still set.
	StoreErr error
}

// OK reports whether the image was uploaded and recorded.
func (r Result) OK() bool {
	return r.Err == nil && r.StoreErr == nil && r.Record != nil
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(w *Workflow) {
		w.newID = fn
	}
}

// WithObserver reports each file to o as it is processed.
func WithObserver(o Observer) Option {
	return func(w *Workflow) {
		w.observer = o
	}
}

// Observer is told when each file starts and finishes. Calls are made from
// the goroutine running the workflow, in file order.
type Observer interface {
	Started(f File)
	Finished(res Result)
}

type nopObserver struct{}

func (nopObserver) Started(File)    {}
func (nopObserver) Finished(Result) {}

// Workflow uploads files one at a time and records each success.
type Workflow struct {
	uploader Uploader
	storer   metadata.Storer
	logger   *zap.Logger
	newID    func() string
	observer Observer
}

// NewWorkflow creates a new Workflow.
func NewWorkflow(uploader Uploader, storer metadata.Storer, logger *zap.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		uploader: uploader,
		storer:   storer,
		logger:   logger,
		newID:    uuid.NewString,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes files sequentially. A failure on one file does not stop the
// next; a cancelled context stops before the next file starts.
func (w *Workflow) Run(ctx context.Context, files []File) []Result {
	results := make([]Result, 0, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			res := Result{Name: f.Name, Err: err}
			w.observer.Finished(res)
			results = append(results, res)
			continue
		}
		results = append(results, w.Process(ctx, f))
	}

	return results
}

// Process uploads and records a single file.
func (w *Workflow) Process(ctx context.Context, f File) Result {
	w.observer.Started(f)
	res := w.process(ctx, f)
	w.observer.Finished(res)
	return res
}

func (w *Workflow) process(ctx context.Context, f File) Result {
	res := Result{Name: f.Name, ID: w.newID()}

	info, err := images.Inspect(f.Name, f.Data)
	if err != nil {
		w.logger.Warn("skipping file", zap.String("name", f.Name), zap.Error(err))
		res.Err = err
		return res
	}

	rec, err := w.uploader.Upload(ctx, imgur.Image{
		Name:        f.Name,
		Data:        f.Data,
		ContentType: info.ContentType,
	}, res.ID)
	if err != nil {
		w.logger.Error("upload failed",
			zap.String("name", f.Name),
			zap.String("id", res.ID),
			zap.Error(err),
		)
		res.Err = err
		return res
	}
	res.Record = rec

	if err := w.storer.Put(ctx, rec); err != nil {
		w.logger.Error("failed to record image metadata",
			zap.String("id", rec.ID),
			zap.String("link", rec.Link),
			zap.Error(err),
		)
		res.StoreErr = err
	}

	return res
}
