// Package storage keeps uploaded file bytes on local disk or in an S3
// compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/peoplesquare/backend/internal/config"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// ErrNotExist is returned by Open when no object has the given name.
var ErrNotExist = errors.New("stored file does not exist")

// ErrInvalidName rejects names that would escape the storage root.
var ErrInvalidName = errors.New("invalid stored file name")

type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes name. A missing object is not an error.
	Delete(ctx context.Context, name string) error
	Ping(ctx context.Context) error
	Driver() string
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", DriverLocal:
		return NewLocal(cfg.LocalDir)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// CleanName reduces name to a single path element.
func CleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "", ErrInvalidName
	}
	return base, nil
}
