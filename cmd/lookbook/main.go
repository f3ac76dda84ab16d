package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	generatecmder "github.com/papercomputeco/lookbook/cmd/lookbook/generate"
	imagescmder "github.com/papercomputeco/lookbook/cmd/lookbook/images"
	mergecmder "github.com/papercomputeco/lookbook/cmd/lookbook/merge"
	servecmder "github.com/papercomputeco/lookbook/cmd/lookbook/serve"
	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	uploadcmder "github.com/papercomputeco/lookbook/cmd/lookbook/upload"
	watchcmder "github.com/papercomputeco/lookbook/cmd/lookbook/watch"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const rootLongDesc string = `lookbook composes vision prompts for a chat completion model and
uploads outfit images to Imgur, recording each public link under a
generated UUID.

Configuration comes from built-in defaults, an optional --config
file (.toml or .yaml), a .env file and the environment, with later
sources winning. The credentials are read from OPEN_AI_API_KEY,
MODEL_NAME, IMGUR_CLIENT_ID and IMGUR_CLIENT_SECRET.`

func newRootCmd() *cobra.Command {
	opts := &setup.Options{}

	cmd := &cobra.Command{
		Use:           "lookbook",
		Short:         "Fashion prompt composer and image uploader",
		Long:          rootLongDesc,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.Register(cmd)

	cmd.AddCommand(
		servecmder.NewServeCmd(opts, version),
		generatecmder.NewGenerateCmd(opts),
		uploadcmder.NewUploadCmd(opts),
		imagescmder.NewImagesCmd(opts),
		mergecmder.NewMergeCmd(opts),
		watchcmder.NewWatchCmd(opts),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
