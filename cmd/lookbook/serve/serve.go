package servecmder

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	"github.com/papercomputeco/lookbook/server"
)

const serveLongDesc string = `Run the lookbook web server.

Serves the image upload form at /, a JSON API under /api
(generate, upload, images) and MCP tools at /mcp. The server
stops when the command's context is cancelled (Ctrl-C).

Examples:
  lookbook serve
  lookbook serve --listen 127.0.0.1:9000
  lookbook --config lookbook.toml serve`

const serveShortDesc string = "Run the upload form, JSON API and MCP server"

type serveCommander struct {
	opts    *setup.Options
	listen  string
	version string
}

func NewServeCmd(opts *setup.Options, version string) *cobra.Command {
	cmder := &serveCommander{opts: opts, version: version}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default from config, then :8080)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	env, err := c.opts.Load()
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.Logger

	listen := c.listen
	if listen == "" {
		listen = env.Config.Server.ListenAddr
	}

	if err := env.Config.ValidateCompletion(); err != nil {
		logger.Warn("generation endpoints will fail", zap.Error(err))
	}
	if err := env.Config.ValidateUpload(); err != nil {
		logger.Warn("upload endpoints will fail", zap.Error(err))
	}

	storer, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer storer.Close()

	generator, err := env.Completion()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr: listen,
		Version:    c.version,
	}, generator, env.Workflow(storer), storer, logger)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", listen, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.RunWithListener(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down lookbook server")
		if err := srv.Shutdown(); err != nil {
			return fmt.Errorf("could not shut down server: %w", err)
		}
		return nil
	}
}
