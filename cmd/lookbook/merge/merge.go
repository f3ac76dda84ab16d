package mergecmder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/storage"
)

const mergeLongDesc string = `Merge one or more metadata stores into the configured store.

Entries are keyed by image ID, so this is a simple union: IDs that
already exist in the target are skipped and their links are left
untouched. Sources are read with the --from driver, which lets a
JSON mapping file be imported into a bolt or SQLite store.

Examples:
  lookbook merge old/publicUrl.json other/publicUrl.json
  lookbook --config sqlite.toml merge public_Image_Url/publicUrl.json
  lookbook merge --from bolt ~/alice/images.db`

const mergeShortDesc string = "Merge metadata stores"

type mergeCommander struct {
	opts *setup.Options
	from string
}

func NewMergeCmd(opts *setup.Options) *cobra.Command {
	cmder := &mergeCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "merge [sources...]",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVar(&cmder.from, "from", storage.DriverJSON, "Driver of the source stores (json, bolt or sqlite)")

	return cmd
}

func (c *mergeCommander) run(ctx context.Context, cmd *cobra.Command, sources []string) error {
	if c.from == storage.DriverInMemory {
		return fmt.Errorf("cannot merge from the %s driver", c.from)
	}

	env, err := c.opts.Load()
	if err != nil {
		return err
	}
	defer env.Close()

	target, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer target.Close()

	var totalNew, totalExisting int

	for _, srcPath := range sources {
		srcNew, srcExisting, err := c.mergeOne(ctx, env, target, srcPath)
		if err != nil {
			return err
		}

		totalNew += srcNew
		totalExisting += srcExisting

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d new, %d already existed\n", srcPath, srcNew, srcExisting)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new images from %d sources (%d already existed)\n",
		totalNew, len(sources), totalExisting)

	return nil
}

func (c *mergeCommander) mergeOne(ctx context.Context, env *setup.Env, target metadata.Storer, srcPath string) (int, int, error) {
	// Opening a store creates a missing file, which would hide a mistyped path.
	if _, err := os.Stat(srcPath); err != nil {
		return 0, 0, fmt.Errorf("could not open source store %s: %w", srcPath, err)
	}

	source, err := storage.Open(ctx, storage.Config{Driver: c.from, Path: srcPath}, env.Logger)
	if err != nil {
		return 0, 0, fmt.Errorf("could not open source store %s: %w", srcPath, err)
	}
	defer source.Close()

	entries, err := source.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("could not list images from %s: %w", srcPath, err)
	}

	var srcNew, srcExisting int
	for _, e := range entries {
		_, err := target.Get(ctx, e.ID)
		if err == nil {
			srcExisting++
			continue
		}

		var notFound metadata.ErrNotFound
		if !errors.As(err, &notFound) {
			return 0, 0, fmt.Errorf("could not check image %s: %w", e.ID, err)
		}

		if err := target.Put(ctx, &metadata.Record{ID: e.ID, Link: e.Link}); err != nil {
			return 0, 0, fmt.Errorf("could not put image %s: %w", e.ID, err)
		}
		srcNew++
	}

	return srcNew, srcExisting, nil
}
