package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a key has no stored document.
var ErrObjectNotFound = errors.New("object not found")

// DocumentStore defines the interface for invoice document backends.
// Supports both the local filesystem and S3-compatible object stores.
type DocumentStore interface {
	// Put stores the document under key, replacing any previous version.
	// size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open streams a stored document. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if a document exists and returns its size
	Exists(ctx context.Context, key string) (exists bool, size int64, err error)

	// Delete removes a document. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PresignedDownloadURL returns a time-limited link to the document.
	PresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}
