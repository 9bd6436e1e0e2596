// Package crypto provides hashing and token helpers for Alexander Files.
package crypto

import (
	"crypto/sha1" //nolint:gosec // kept for compatibility with existing password digests
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/sha3"
)

// HashReader wraps an io.Reader and computes the SHA-256 of everything read.
type HashReader struct {
	reader io.Reader
	sha256 hash.Hash
	size   int64
}

// NewHashReader creates a new HashReader.
func NewHashReader(r io.Reader) *HashReader {
	return &HashReader{
		reader: r,
		sha256: sha256.New(),
	}
}

// Read implements io.Reader and updates the running hash.
func (h *HashReader) Read(p []byte) (n int, err error) {
	n, err = h.reader.Read(p)
	if n > 0 {
		h.sha256.Write(p[:n])
		h.size += int64(n)
	}
	return n, err
}

// SHA256 returns the hex-encoded SHA-256 hash.
// Should only be called after reading is complete.
func (h *HashReader) SHA256() string {
	return hex.EncodeToString(h.sha256.Sum(nil))
}

// Size returns the total number of bytes read.
func (h *HashReader) Size() int64 {
	return h.size
}

// ComputeSHA256 computes the SHA-256 hash of a byte slice.
func ComputeSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateSHA256 validates that a string is a lowercase SHA-256 hex hash.
func ValidateSHA256(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// =============================================================================
// Password digests
// =============================================================================

// Supported password digest algorithms.
const (
	DigestSHA1    = "sha1"
	DigestSHA3256 = "sha3-256"
)

// PasswordDigest computes an unsalted, deterministic hex digest so that
// stored credentials can be matched by equality.
type PasswordDigest func(password string) string

// NewPasswordDigest returns the digest function for the named algorithm.
func NewPasswordDigest(algorithm string) (PasswordDigest, error) {
	switch algorithm {
	case DigestSHA1, "":
		return func(password string) string {
			sum := sha1.Sum([]byte(password)) //nolint:gosec
			return hex.EncodeToString(sum[:])
		}, nil
	case DigestSHA3256:
		return func(password string) string {
			sum := sha3.Sum256([]byte(password))
			return hex.EncodeToString(sum[:])
		}, nil
	default:
		return nil, fmt.Errorf("unsupported password digest %q", algorithm)
	}
}
