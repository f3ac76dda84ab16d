package imagescmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/render"
)

const imagesLongDesc string = `List recorded images, or show one by its ID.

Reads the configured metadata store (by default the JSON file
public_Image_Url/publicUrl.json).

Examples:
  lookbook images
  lookbook images 0f8c1d2e-6a7b-4c3d-9e8f-1a2b3c4d5e6f
  lookbook images --json`

const imagesShortDesc string = "List recorded image links"

type imagesCommander struct {
	opts     *setup.Options
	jsonMode bool
}

func NewImagesCmd(opts *setup.Options) *cobra.Command {
	cmder := &imagesCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "images [id]",
		Short: imagesShortDesc,
		Long:  imagesLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return cmder.run(cmd.Context(), cmd, id)
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonMode, "json", false, "Print JSON instead of a table")

	return cmd
}

func (c *imagesCommander) run(ctx context.Context, cmd *cobra.Command, id string) error {
	env, err := c.opts.Load()
	if err != nil {
		return err
	}
	defer env.Close()

	storer, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer storer.Close()

	out := cmd.OutOrStdout()
	r := render.New(out)

	if id != "" {
		entry, err := storer.Get(ctx, id)
		if err != nil {
			var notFound metadata.ErrNotFound
			if errors.As(err, &notFound) {
				return fmt.Errorf("no image recorded with id %s", id)
			}
			return fmt.Errorf("could not get image %s: %w", id, err)
		}
		if c.jsonMode {
			return writeJSON(cmd, entry)
		}
		r.Entry(entry)
		return nil
	}

	entries, err := storer.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list images: %w", err)
	}
	if c.jsonMode {
		return writeJSON(cmd, entries)
	}
	r.Entries(entries)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
