// Package factory opens the blob.Store selected by server configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/datapress/datapress/pkg/blob"
	"github.com/datapress/datapress/pkg/blob/fs"
	"github.com/datapress/datapress/pkg/blob/memory"
	"github.com/datapress/datapress/pkg/blob/s3"
	configs "github.com/datapress/datapress/pkg/configs/server"
)

// Open builds the blob.Store named by cfg.Driver.
// An empty driver defaults to the filesystem store.
func Open(ctx context.Context, cfg configs.BlobConfig) (blob.Store, error) {
	driver := blob.Driver(cfg.Driver)
	if driver == "" {
		driver = blob.DriverFilesystem
	}
	switch driver {
	case blob.DriverFilesystem:
		return fs.New(cfg.FS.Root)
	case blob.DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
			Prefix:   cfg.S3.Prefix,
		})
	case blob.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver: %s", cfg.Driver)
	}
}
