// Package storage opens the configured metadata.Storer driver.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/storage/bolt"
	"github.com/papercomputeco/lookbook/pkg/storage/inmemory"
	"github.com/papercomputeco/lookbook/pkg/storage/jsonfile"
	"github.com/papercomputeco/lookbook/pkg/storage/sqlite"
)

// Driver names.
const (
	DriverJSON     = "json"
	DriverBolt     = "bolt"
	DriverSQLite   = "sqlite"
	DriverInMemory = "memory"
)

// Config selects a driver and its location.
type Config struct {
	// Driver is one of "json" (default), "bolt", "sqlite" or "memory"
	Driver string

	// Path is the store file. Empty means the JSON default path for the json
	// driver; the other file drivers require it.
	Path string
}

// Open returns the Storer described by config.
func Open(ctx context.Context, config Config, logger *zap.Logger) (metadata.Storer, error) {
	switch config.Driver {
	case "", DriverJSON:
		d := jsonfile.NewDriver(config.Path, logger)
		logger.Info("using JSON file storage", zap.String("path", d.Path()))
		return d, nil

	case DriverBolt:
		if config.Path == "" {
			return nil, fmt.Errorf("bolt driver requires a path")
		}
		d, err := bolt.NewDriver(config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create bolt storer: %w", err)
		}
		logger.Info("using bolt storage", zap.String("path", config.Path))
		return d, nil

	case DriverSQLite:
		if config.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires a path")
		}
		d, err := sqlite.NewDriver(ctx, config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		logger.Info("using SQLite storage", zap.String("path", config.Path))
		return d, nil

	case DriverInMemory:
		logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.Driver)
	}
}
