// Package setup holds the flags and wiring shared by every lookbook subcommand.
package setup

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/completion"
	"github.com/papercomputeco/lookbook/pkg/config"
	"github.com/papercomputeco/lookbook/pkg/imgur"
	"github.com/papercomputeco/lookbook/pkg/logger"
	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/storage"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

// DefaultEnvFile is loaded when --env is not given.
const DefaultEnvFile = ".env"

// Options are the global flags.
type Options struct {
	ConfigPath string
	EnvPath    string
	Debug      bool
}

// Register binds the global flags to cmd as persistent flags.
func (o *Options) Register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.ConfigPath, "config", "c", "", "Path to a .toml or .yaml config file")
	flags.StringVar(&o.EnvPath, "env", DefaultEnvFile, "Path to a .env file (ignored when missing)")
	flags.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
}

// Env is the loaded configuration and logger for one command invocation.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
}

// Load reads the configuration and builds the logger.
func (o *Options) Load() (*Env, error) {
	cfg, err := config.Load(o.ConfigPath, o.EnvPath)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	if o.Debug {
		cfg.Log.Debug = true
	}

	log := logger.New(logger.Options{
		Debug:  cfg.Log.Debug,
		Format: cfg.Log.Format,
	})

	return &Env{Config: cfg, Logger: log}, nil
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Logger.Sync()
}

// OpenStore opens the configured metadata store.
func (e *Env) OpenStore(ctx context.Context) (metadata.Storer, error) {
	storer, err := storage.Open(ctx, e.Config.Storage(), e.Logger)
	if err != nil {
		return nil, fmt.Errorf("could not open metadata store: %w", err)
	}
	return storer, nil
}

// Workflow builds the upload workflow against the Imgur client and storer.
// Credentials are not checked, callers that upload immediately should call
// Config.ValidateUpload first.
func (e *Env) Workflow(storer metadata.Storer, opts ...upload.Option) *upload.Workflow {
	client := imgur.New(e.Config.ImgurClient(), e.Logger)
	return upload.NewWorkflow(client, storer, e.Logger, opts...)
}

// Completion builds the completion client.
func (e *Env) Completion() (*completion.Client, error) {
	cfg, err := e.Config.Completion()
	if err != nil {
		return nil, fmt.Errorf("invalid completion configuration: %w", err)
	}
	return completion.New(cfg, e.Logger), nil
}
