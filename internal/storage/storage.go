// Package storage defines the object store used to archive uploads and
// table snapshots.
package storage

import (
	"context"
	"io"
)

type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

type PutOptions struct {
	ContentType string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}
