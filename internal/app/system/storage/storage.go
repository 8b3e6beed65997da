// Package storage abstracts object storage for uploaded files: member
// photos, gallery images, event images, and documents.
package storage

import (
	"context"
	"io"
)

// PutOptions carries metadata for an upload.
type PutOptions struct {
	ContentType string
}

// Store is the object-storage interface handlers depend on.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, opts *PutOptions) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}
