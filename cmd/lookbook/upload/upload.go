package uploadcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	"github.com/papercomputeco/lookbook/pkg/images"
	"github.com/papercomputeco/lookbook/pkg/render"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

const uploadLongDesc string = `Upload images to Imgur and record their public links.

Each file gets a fresh UUID, which is used as the image title on
Imgur and as the key in the metadata store. Files are uploaded one
at a time, in the order given. A directory argument expands to the
.png, .jpg and .jpeg files directly inside it.

A failed file is reported inline and does not stop the others.

Examples:
  lookbook upload look1.png look2.jpg
  lookbook upload ./outfits
  lookbook --config lookbook.toml upload dress.jpeg`

const uploadShortDesc string = "Upload images and record their links"

type uploadCommander struct {
	opts *setup.Options
}

func NewUploadCmd(opts *setup.Options) *cobra.Command {
	cmder := &uploadCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "upload <file|dir>...",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	return cmd
}

func (c *uploadCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No images to upload.")
		return nil
	}

	env, err := c.opts.Load()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Config.ValidateUpload(); err != nil {
		return err
	}

	storer, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer storer.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := render.New(cmd.OutOrStdout()).Track(len(paths), cancel)

	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		f, err := upload.ReadFile(p)
		if err != nil {
			// Unreadable files still count toward the total.
			tracker.Finished(upload.Result{Name: filepath.Base(p), Err: err})
			continue
		}
		files = append(files, f)
	}

	env.Workflow(storer, upload.WithObserver(tracker)).Run(ctx, files)

	return tracker.Close()
}

// expandPaths replaces each directory with its image files, sorted by name.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing files surface as per-file read errors.
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("could not read directory %s: %w", arg, err)
		}

		var names []string
		for _, e := range entries {
			if !e.IsDir() && images.Allowed(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			paths = append(paths, filepath.Join(arg, name))
		}
	}
	return paths, nil
}
