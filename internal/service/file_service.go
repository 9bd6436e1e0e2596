package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/metrics"
	"github.com/prn-tf/alexander-files/internal/repository"
	"github.com/prn-tf/alexander-files/internal/storage"
)

// DefaultPageSize is the number of records per listing page.
const DefaultPageSize = 10

// FileService creates, lists and serves file records and their payloads,
// enforcing ownership and visibility.
type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Backend
	queue    repository.JobQueue
	pageSize int
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// FileServiceConfig contains FileService settings.
type FileServiceConfig struct {
	// PageSize is the listing page size. Zero means DefaultPageSize.
	PageSize int
}

// NewFileService creates a new FileService. queue may be nil.
func NewFileService(
	fileRepo repository.FileRepository,
	backend storage.Backend,
	queue repository.JobQueue,
	cfg FileServiceConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *FileService {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &FileService{
		fileRepo: fileRepo,
		storage:  backend,
		queue:    queue,
		pageSize: pageSize,
		metrics:  m,
		logger:   logger.With().Str("service", "file").Logger(),
	}
}

// isRoot reports whether parentID designates the top level.
func isRoot(parentID string) bool {
	return parentID == "" || parentID == domain.RootParentID
}

// storeError maps a repository failure that is not a domain error.
func (s *FileService) storeError(err error, msg string, fileID string) error {
	s.logger.Error().Err(err).Str("file_id", fileID).Msg(msg)
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

// =============================================================================
// Create
// =============================================================================

// CreateFileInput contains the data needed to create a file record.
type CreateFileInput struct {
	UserID   string
	Name     string
	Type     string
	ParentID string
	IsPublic bool
	// Data is the base64-encoded payload. Required unless Type is folder.
	Data string
}

// Create validates the input, stores the payload, persists the record and
// then enqueues a post-processing job for it.
func (s *FileService) Create(ctx context.Context, input CreateFileInput) (*domain.File, error) {
	if input.Name == "" {
		return nil, ErrMissingName
	}

	fileType := domain.FileType(input.Type)
	if !fileType.IsValid() {
		return nil, ErrMissingType
	}

	var payload []byte
	if fileType.HasPayload() {
		if input.Data == "" {
			return nil, ErrMissingData
		}
		decoded, err := base64.StdEncoding.DecodeString(input.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64", ErrMissingData)
		}
		payload = decoded
	}

	parentID := ""
	if !isRoot(input.ParentID) {
		parent, err := s.fileRepo.GetByID(ctx, input.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrFileNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, s.storeError(err, "failed to get parent", input.ParentID)
		}
		if !parent.IsFolder() {
			return nil, ErrParentNotAFolder
		}
		parentID = parent.ID
	}

	file := domain.NewFile(input.UserID, input.Name, fileType, parentID)
	file.IsPublic = input.IsPublic

	if payload != nil {
		ref, err := s.storage.Store(ctx, bytes.NewReader(payload), int64(len(payload)))
		if err != nil {
			s.logger.Error().Err(err).Str("name", input.Name).Msg("failed to store payload")
			return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		file.StorageRef = ref
	}

	// On failure the stored payload stays behind; a retry with the same bytes reuses it.
	if err := s.fileRepo.Create(ctx, file); err != nil {
		switch {
		case errors.Is(err, domain.ErrParentNotFound):
			return nil, ErrParentNotFound
		case errors.Is(err, domain.ErrOwnerNotFound):
			s.logger.Warn().Str("user_id", input.UserID).Msg("file owner no longer exists")
			return nil, ErrUnauthorized
		}
		return nil, s.storeError(err, "failed to create file", "")
	}

	s.metrics.RecordFileCreated(string(file.Type))
	s.logger.Info().
		Str("file_id", file.ID).
		Str("user_id", file.OwnerID).
		Str("type", string(file.Type)).
		Msg("file created")

	enqueue(ctx, s.queue, domain.Job{Kind: domain.JobKindFile, FileID: file.ID, UserID: file.OwnerID}, s.metrics, s.logger)

	return file, nil
}

// =============================================================================
// Read
// =============================================================================

// Get returns a record if userID (empty for anonymous callers) may read it.
func (s *FileService) Get(ctx context.Context, userID, fileID string) (*domain.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, s.storeError(err, "failed to get file", fileID)
	}

	if !file.CanBeReadBy(userID) {
		return nil, ErrFileAccessDenied
	}
	return file, nil
}

// ListFilesInput contains listing parameters.
type ListFilesInput struct {
	UserID   string
	ParentID string
	// Page is zero-based. Negative values are treated as 0.
	Page int
}

// List returns one page of the caller's records under a parent, in insertion order.
// A page past the end is empty.
func (s *FileService) List(ctx context.Context, input ListFilesInput) ([]*domain.File, error) {
	page := input.Page
	if page < 0 {
		page = 0
	}
	// A page whose offset overflows int lies past the end of any listing.
	if page > math.MaxInt/s.pageSize-1 {
		return []*domain.File{}, nil
	}

	parentID := ""
	if !isRoot(input.ParentID) {
		parentID = input.ParentID
	}

	files, err := s.fileRepo.List(ctx, input.UserID, parentID, repository.ListOptions{
		Offset: page * s.pageSize,
		Limit:  s.pageSize,
	})
	if err != nil {
		return nil, s.storeError(err, "failed to list files", parentID)
	}
	return files, nil
}

// PageSize returns the configured listing page size.
func (s *FileService) PageSize() int {
	return s.pageSize
}

// SetVisibility publishes or unpublishes a record owned by userID.
func (s *FileService) SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*domain.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, s.storeError(err, "failed to get file", fileID)
	}

	if !file.IsOwnedBy(userID) {
		return nil, ErrFileAccessDenied
	}

	updated, err := s.fileRepo.UpdateVisibility(ctx, fileID, isPublic)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, s.storeError(err, "failed to update visibility", fileID)
	}

	s.logger.Info().
		Str("file_id", fileID).
		Bool("is_public", isPublic).
		Msg("file visibility changed")

	return updated, nil
}

// =============================================================================
// Payload
// =============================================================================

// Payload is an open payload stream with its MIME type.
type Payload struct {
	Body        io.ReadCloser
	ContentType string
}

// ReadPayloadInput contains payload read parameters.
type ReadPayloadInput struct {
	UserID string
	FileID string
	// Size selects a thumbnail width. Zero selects the original.
	Size int
}

// ReadPayload opens the bytes of a record, or of one of its thumbnails.
// The caller must close Body.
func (s *FileService) ReadPayload(ctx context.Context, input ReadPayloadInput) (*Payload, error) {
	if input.Size != 0 && !domain.IsThumbnailWidth(input.Size) {
		return nil, ErrInvalidThumbnailSize
	}

	file, err := s.Get(ctx, input.UserID, input.FileID)
	if err != nil {
		return nil, err
	}

	if file.IsFolder() {
		return nil, ErrFolderHasNoContent
	}

	ref := file.StorageRef
	if input.Size != 0 {
		thumb, err := s.fileRepo.GetThumbnail(ctx, file.ID, input.Size)
		if err != nil {
			if errors.Is(err, domain.ErrThumbnailNotFound) {
				return nil, ErrFileNotFound
			}
			return nil, s.storeError(err, "failed to get thumbnail", file.ID)
		}
		ref = thumb.StorageRef
	}

	body, err := s.storage.Retrieve(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			s.logger.Warn().Str("file_id", file.ID).Str("ref", ref).Msg("payload missing from storage")
			return nil, ErrFileNotFound
		}
		return nil, s.storeError(err, "failed to retrieve payload", file.ID)
	}

	return &Payload{Body: body, ContentType: file.ContentType()}, nil
}
