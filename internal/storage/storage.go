// Package storage persists blobs (PDFs, signature partials, logos) behind
// stable relative keys such as "pdfs/<pdf_id>.pdf".
package storage

import (
	"context"
	"io"
)

type Storage interface {
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
