package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/pkg/crypto"
)

// Filesystem stores payloads as files under a sharded directory tree.
type Filesystem struct {
	paths  PathConfig
	tmpDir string
	logger zerolog.Logger
}

// NewFilesystem creates a filesystem backend rooted at dataDir.
func NewFilesystem(dataDir string, logger zerolog.Logger) (*Filesystem, error) {
	tmpDir := filepath.Join(dataDir, ".tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Filesystem{
		paths:  DefaultPathConfig(dataDir),
		tmpDir: tmpDir,
		logger: logger.With().Str("storage", "filesystem").Logger(),
	}, nil
}

// Store writes the content to a temporary file while hashing it, then moves
// it to its content-addressed location.
func (f *Filesystem) Store(ctx context.Context, reader io.Reader, size int64) (string, error) {
	tmp, err := os.CreateTemp(f.tmpDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hr := crypto.NewHashReader(reader)
	if _, err := io.Copy(tmp, hr); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if size >= 0 && hr.Size() != size {
		return "", fmt.Errorf("payload size mismatch: expected %d, got %d", size, hr.Size())
	}

	ref := hr.SHA256()
	dest := ComputePath(f.paths, ref)

	if _, err := os.Stat(dest); err == nil {
		return ref, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create shard directory: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("failed to move payload into place: %w", err)
	}

	f.logger.Debug().Str("ref", ref).Int64("size", hr.Size()).Msg("payload stored")
	return ref, nil
}

// Retrieve opens the payload stored under ref.
func (f *Filesystem) Retrieve(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}

	file, err := os.Open(ComputePath(f.paths, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open payload: %w", err)
	}
	return file, nil
}

// Delete removes the payload stored under ref.
func (f *Filesystem) Delete(ctx context.Context, ref string) error {
	if err := ValidateRef(ref); err != nil {
		return err
	}

	if err := os.Remove(ComputePath(f.paths, ref)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete payload: %w", err)
	}
	return nil
}

// Exists reports whether a payload is stored under ref.
func (f *Filesystem) Exists(ctx context.Context, ref string) (bool, error) {
	if err := ValidateRef(ref); err != nil {
		return false, err
	}

	_, err := os.Stat(ComputePath(f.paths, ref))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat payload: %w", err)
}

// Ensure Filesystem implements Backend.
var _ Backend = (*Filesystem)(nil)
