// Package blob selects and re-exports the object stores published archives
// are written to.
package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	"isacore/internal/blob/core"
	"isacore/internal/blob/fs"
	"isacore/internal/blob/memory"
	"isacore/internal/blob/s3"
	"isacore/internal/logging"
)

type (
	Driver           = core.Driver
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Info             = core.Info
	Store            = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
	ErrInvalidKey  = core.ErrInvalidKey
)

// Open selects a store from the environment.
//
//	ISACORE_BLOB_DRIVER   fs|s3|memory (default fs)
//	ISACORE_BLOB_FS_ROOT  root directory for fs (default ./blobdata)
//	ISACORE_BLOB_S3_*     see s3.FromEnv
func Open(ctx context.Context) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(os.Getenv("ISACORE_BLOB_DRIVER"))))
	if driver == "" {
		driver = DriverFilesystem
	}
	logging.L().Debug("opening blob store", "driver", string(driver))
	switch driver {
	case DriverFilesystem:
		return fs.New(os.Getenv("ISACORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3.FromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
