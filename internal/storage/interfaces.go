// Package storage defines payload storage backends.
// Payloads are content-addressed: the storage reference of a payload is the
// SHA-256 of its bytes, so storing the same bytes twice is a no-op.
package storage

import (
	"context"
	"errors"
	"io"
)

// Storage errors
var (
	// ErrInvalidRef indicates a storage reference that is not a SHA-256 hex digest.
	ErrInvalidRef = errors.New("invalid storage reference")
)

// Backend defines the interface for payload storage backends.
// Implementations include the local filesystem, S3 and MinIO.
type Backend interface {
	// Store stores content from a reader and returns its storage reference
	// (the hex SHA-256 of the content). size may be -1 when unknown.
	Store(ctx context.Context, reader io.Reader, size int64) (ref string, err error)

	// Retrieve opens the content stored under ref. The caller must close it.
	// Returns domain.ErrBlobNotFound if nothing is stored under ref.
	Retrieve(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes the content stored under ref.
	// Returns domain.ErrBlobNotFound if nothing is stored under ref.
	Delete(ctx context.Context, ref string) error

	// Exists reports whether content is stored under ref.
	Exists(ctx context.Context, ref string) (bool, error)
}
