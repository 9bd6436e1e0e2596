package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/config"
	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/pkg/crypto"
)

// MinIO stores payloads through the native MinIO client.
type MinIO struct {
	client *minio.Client
	bucket string
	keys   PathConfig
	logger zerolog.Logger
}

// normaliseEndpoint accepts "host:port" as well as "http(s)://host:port".
func normaliseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		return raw, useSSL, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid endpoint %q", raw)
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("endpoint must not contain a path")
	}
	return u.Host, u.Scheme == "https", nil
}

// NewMinIO connects to MinIO and creates the bucket when it is missing.
func NewMinIO(ctx context.Context, cfg config.S3StorageConfig, logger zerolog.Logger) (*MinIO, error) {
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("invalid minio endpoint: %w", err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("created storage bucket")
	}

	return &MinIO{
		client: client,
		bucket: cfg.Bucket,
		keys:   DefaultPathConfig(cfg.Prefix),
		logger: logger.With().Str("storage", "minio").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

func (m *MinIO) key(ref string) string {
	return ComputeObjectKey(m.keys, ref)
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Store buffers the content to hash it, then uploads it under its digest.
func (m *MinIO) Store(ctx context.Context, reader io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("payload size mismatch: expected %d, got %d", size, len(data))
	}

	ref := crypto.ComputeSHA256(data)
	if exists, err := m.Exists(ctx, ref); err == nil && exists {
		return ref, nil
	}

	_, err = m.client.PutObject(ctx, m.bucket, m.key(ref), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	m.logger.Debug().Str("ref", ref).Int("size", len(data)).Msg("payload stored")
	return ref, nil
}

// Retrieve streams the object stored under ref.
func (m *MinIO) Retrieve(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, m.key(ref), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy; Stat forces the request so a missing key surfaces here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	return obj, nil
}

// Delete removes the object stored under ref.
func (m *MinIO) Delete(ctx context.Context, ref string) error {
	exists, err := m.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrBlobNotFound
	}

	if err := m.client.RemoveObject(ctx, m.bucket, m.key(ref), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// Exists reports whether an object is stored under ref.
func (m *MinIO) Exists(ctx context.Context, ref string) (bool, error) {
	if err := ValidateRef(ref); err != nil {
		return false, err
	}

	_, err := m.client.StatObject(ctx, m.bucket, m.key(ref), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// Ensure MinIO implements Backend.
var _ Backend = (*MinIO)(nil)
