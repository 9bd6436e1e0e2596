package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/config"
	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/pkg/crypto"
)

// S3 stores payloads as objects in an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
	keys   PathConfig
	logger zerolog.Logger
}

// NewS3 builds an S3 backend. A non-empty endpoint switches to path-style
// addressing for S3-compatible services.
func NewS3(ctx context.Context, cfg config.S3StorageConfig, logger zerolog.Logger) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		keys:   DefaultPathConfig(cfg.Prefix),
		logger: logger.With().Str("storage", "s3").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

func (s *S3) key(ref string) string {
	return ComputeObjectKey(s.keys, ref)
}

// Store buffers the content to hash it, then uploads it under its digest.
func (s *S3) Store(ctx context.Context, reader io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("payload size mismatch: expected %d, got %d", size, len(data))
	}

	ref := crypto.ComputeSHA256(data)
	if exists, err := s.Exists(ctx, ref); err == nil && exists {
		return ref, nil
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(ref)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	s.logger.Debug().Str("ref", ref).Int("size", len(data)).Msg("payload stored")
	return ref, nil
}

// Retrieve streams the object stored under ref.
func (s *S3) Retrieve(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

// Delete removes the object stored under ref.
func (s *S3) Delete(ctx context.Context, ref string) error {
	exists, err := s.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrBlobNotFound
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists reports whether an object is stored under ref.
func (s *S3) Exists(ctx context.Context, ref string) (bool, error) {
	if err := ValidateRef(ref); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object: %w", err)
	}
	return true, nil
}

// Ensure S3 implements Backend.
var _ Backend = (*S3)(nil)
