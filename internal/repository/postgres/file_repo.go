package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// fileRepository implements repository.FileRepository for PostgreSQL.
type fileRepository struct {
	db Querier
}

// NewFileRepository creates a new PostgreSQL file repository.
func NewFileRepository(db Querier) repository.FileRepository {
	return &fileRepository{db: db}
}

const fileColumns = `id, owner_id, name, type, parent_id, is_public, storage_ref, created_at`

func scanFile(row pgx.Row) (*domain.File, error) {
	file := &domain.File{}
	var fileType string
	var parentID, storageRef *string

	if err := row.Scan(
		&file.ID,
		&file.OwnerID,
		&file.Name,
		&fileType,
		&parentID,
		&file.IsPublic,
		&storageRef,
		&file.CreatedAt,
	); err != nil {
		return nil, err
	}

	file.Type = domain.FileType(fileType)
	if parentID != nil {
		file.ParentID = *parentID
	}
	if storageRef != nil {
		file.StorageRef = *storageRef
	}
	return file, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create creates a new file record.
func (r *fileRepository) Create(ctx context.Context, file *domain.File) error {
	query := `
		INSERT INTO files (id, owner_id, name, type, parent_id, is_public, storage_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	id := uuid.NewString()
	_, err := r.db.Exec(ctx, query,
		id,
		file.OwnerID,
		file.Name,
		string(file.Type),
		optional(file.ParentID),
		file.IsPublic,
		optional(file.StorageRef),
		file.CreatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			if pgConstraint(err) == ownerForeignKey {
				return domain.NewDomainError(domain.ErrOwnerNotFound, "owner is missing", file.OwnerID)
			}
			return domain.NewDomainError(domain.ErrParentNotFound, "parent is missing", file.ParentID)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	file.ID = id
	return nil
}

// GetByID retrieves a file record by ID.
func (r *fileRepository) GetByID(ctx context.Context, id string) (*domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	file, err := scanFile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file by ID: %w", err)
	}
	return file, nil
}

// List returns the owner's records under parentID in insertion order.
func (r *fileRepository) List(ctx context.Context, ownerID, parentID string, opts repository.ListOptions) ([]*domain.File, error) {
	query := `SELECT ` + fileColumns + `
		FROM files
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY seq ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, ownerID, optional(parentID), opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	files := make([]*domain.File, 0, opts.Limit)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}

// UpdateVisibility sets is_public and returns the updated record.
func (r *fileRepository) UpdateVisibility(ctx context.Context, id string, isPublic bool) (*domain.File, error) {
	query := `UPDATE files SET is_public = $1 WHERE id = $2 RETURNING ` + fileColumns

	file, err := scanFile(r.db.QueryRow(ctx, query, isPublic, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to update file visibility: %w", err)
	}
	return file, nil
}

// Count returns the number of file records.
func (r *fileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

// SaveThumbnail records a derivative, replacing an existing one of the same width.
func (r *fileRepository) SaveThumbnail(ctx context.Context, thumb *domain.Thumbnail) error {
	query := `
		INSERT INTO file_thumbnails (file_id, width, storage_ref, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id, width) DO UPDATE SET storage_ref = EXCLUDED.storage_ref, created_at = EXCLUDED.created_at
	`

	if _, err := r.db.Exec(ctx, query, thumb.FileID, thumb.Width, thumb.StorageRef, thumb.CreatedAt); err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return domain.NewDomainError(domain.ErrFileNotFound, "thumbnail source is missing", thumb.FileID)
		}
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// GetThumbnail retrieves a derivative by file ID and width.
func (r *fileRepository) GetThumbnail(ctx context.Context, fileID string, width int) (*domain.Thumbnail, error) {
	query := `SELECT file_id, width, storage_ref, created_at FROM file_thumbnails WHERE file_id = $1 AND width = $2`

	thumb := &domain.Thumbnail{}
	err := r.db.QueryRow(ctx, query, fileID, width).Scan(
		&thumb.FileID,
		&thumb.Width,
		&thumb.StorageRef,
		&thumb.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrThumbnailNotFound
		}
		return nil, fmt.Errorf("failed to get thumbnail: %w", err)
	}
	return thumb, nil
}

// Ensure fileRepository implements repository.FileRepository.
var _ repository.FileRepository = (*fileRepository)(nil)
