// Package storage persists uploaded documents on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"backoffice/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyKey is returned when an object key is blank
var ErrEmptyKey = errors.New("storage key is required")

// FileStorage stores opaque objects under slash-separated keys. Put returns
// the path to persist; the same path is later handed to Delete.
type FileStorage interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

// ObjectKey builds a collision-free key below prefix keeping the extension
// of the client file name, e.g. "factories/images/<uuid>.png".
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, uuid.NewString()+ext)
}

// New selects the driver configured in cfg
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (FileStorage, error) {
	switch cfg.Driver {
	case "", "local":
		s, err := NewLocalStorage(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3Storage(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrEmptyKey
	}
	return key, nil
}
