package storage

import (
	"path"
	"path/filepath"

	"github.com/prn-tf/alexander-files/internal/pkg/crypto"
)

// PathConfig holds configuration for storage path generation.
type PathConfig struct {
	// BasePath is the root directory (or key prefix) for payloads.
	BasePath string

	// ShardLevels is the number of directory levels for sharding.
	ShardLevels int

	// ShardWidth is the number of characters per shard level.
	ShardWidth int
}

// DefaultPathConfig returns the default two-level, two-character sharding.
func DefaultPathConfig(basePath string) PathConfig {
	return PathConfig{
		BasePath:    basePath,
		ShardLevels: 2,
		ShardWidth:  2,
	}
}

// shardComponents returns the shard directories followed by the ref itself.
//
//	ref: "abcdef..."  ->  ["ab", "cd", "abcdef..."]
func shardComponents(config PathConfig, ref string) []string {
	minLength := config.ShardLevels * config.ShardWidth
	if len(ref) < minLength {
		return []string{ref}
	}

	components := make([]string, 0, config.ShardLevels+1)
	offset := 0
	for i := 0; i < config.ShardLevels; i++ {
		components = append(components, ref[offset:offset+config.ShardWidth])
		offset += config.ShardWidth
	}
	return append(components, ref)
}

// ComputePath generates the filesystem path for a storage reference.
//
//	ref: "abcdef1234..."  basePath: "/data"  ->  "/data/ab/cd/abcdef1234..."
func ComputePath(config PathConfig, ref string) string {
	return filepath.Join(append([]string{config.BasePath}, shardComponents(config, ref)...)...)
}

// ComputeObjectKey generates the object key for a storage reference.
// Unlike ComputePath it always uses forward slashes.
func ComputeObjectKey(config PathConfig, ref string) string {
	return path.Join(append([]string{config.BasePath}, shardComponents(config, ref)...)...)
}

// ValidateRef returns ErrInvalidRef unless ref is a SHA-256 hex digest.
// Refs end up in filesystem paths, so anything else is rejected.
func ValidateRef(ref string) error {
	if !crypto.ValidateSHA256(ref) {
		return ErrInvalidRef
	}
	return nil
}
