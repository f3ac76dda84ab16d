package watchcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	"github.com/papercomputeco/lookbook/pkg/images"
	"github.com/papercomputeco/lookbook/pkg/render"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

const watchLongDesc string = `Watch a directory and upload images as they appear.

New or rewritten .png, .jpg and .jpeg files are uploaded once no
further changes to them have been seen for the settle period, so
files still being copied are not sent half written. Uploads run one
at a time. Each path is uploaded at most once per run.

Stop with Ctrl-C.

Examples:
  lookbook watch ./outfits
  lookbook watch --settle 2s ~/Pictures/lookbook`

const watchShortDesc string = "Upload images dropped into a directory"

const defaultSettle = 500 * time.Millisecond

type watchCommander struct {
	opts   *setup.Options
	settle time.Duration
}

func NewWatchCmd(opts *setup.Options) *cobra.Command {
	cmder := &watchCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().DurationVar(&cmder.settle, "settle", defaultSettle, "Quiet period before a changed file is uploaded")

	return cmd
}

func (c *watchCommander) run(ctx context.Context, cmd *cobra.Command, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("could not watch %s: not a directory", dir)
	}
	if c.settle <= 0 {
		c.settle = defaultSettle
	}

	env, err := c.opts.Load()
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.Logger

	if err := env.Config.ValidateUpload(); err != nil {
		return err
	}

	storer, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer storer.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for new images\n", dir)
	tracker := render.New(cmd.OutOrStdout()).Track(0, cancel)

	w := &dirWatcher{
		workflow: env.Workflow(storer, upload.WithObserver(tracker)),
		tracker:  tracker,
		logger:   logger,
		settle:   c.settle,
		pending:  map[string]time.Time{},
		done:     map[string]bool{},
	}

	logger.Info("watching directory", zap.String("dir", dir), zap.Duration("settle", c.settle))

	err = w.loop(ctx, watcher.Events, watcher.Errors)
	if cerr := tracker.Close(); err == nil {
		err = cerr
	}
	return err
}

// dirWatcher debounces file events and uploads settled files in order.
type dirWatcher struct {
	workflow *upload.Workflow
	tracker  render.Tracker
	logger   *zap.Logger
	settle   time.Duration

	// pending maps a path to the time of its latest event
	pending map[string]time.Time

	// done holds paths already uploaded during this run
	done map[string]bool
}

func (w *dirWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.observe(ev, time.Now())

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			for _, path := range w.ready(now) {
				w.upload(ctx, path)
			}
		}
	}
}

func (w *dirWatcher) observe(ev fsnotify.Event, at time.Time) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !images.Allowed(ev.Name) || w.done[ev.Name] {
		return
	}
	w.logger.Debug("file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
	w.pending[ev.Name] = at
}

// ready removes and returns, sorted, the pending paths that have been quiet
// for the settle period.
func (w *dirWatcher) ready(now time.Time) []string {
	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		delete(w.pending, path)
	}
	return paths
}

func (w *dirWatcher) upload(ctx context.Context, path string) {
	w.done[path] = true

	f, err := upload.ReadFile(path)
	if err != nil {
		w.tracker.Finished(upload.Result{Name: filepath.Base(path), Err: err})
		return
	}

	// The workflow reports the result to the tracker.
	w.workflow.Process(ctx, f)
}
