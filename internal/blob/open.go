package blob

import (
	"context"
	"fmt"
)

// Options selects and configures a driver
type Options struct {
	Driver Driver
	FSRoot string
	S3     S3Options
}

// Open returns the store for opts.Driver. An empty driver selects the filesystem.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", opts.Driver)
	}
}
