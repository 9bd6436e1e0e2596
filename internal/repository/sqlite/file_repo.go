package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// fileRepository implements repository.FileRepository for SQLite.
type fileRepository struct {
	db *DB
}

// NewFileRepository creates a new SQLite file repository.
func NewFileRepository(db *DB) repository.FileRepository {
	return &fileRepository{db: db}
}

const fileColumns = `id, owner_id, name, type, parent_id, is_public, storage_ref, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*domain.File, error) {
	file := &domain.File{}
	var fileType, createdAt string
	var parentID, storageRef sql.NullString
	var isPublic int

	if err := row.Scan(
		&file.ID,
		&file.OwnerID,
		&file.Name,
		&fileType,
		&parentID,
		&isPublic,
		&storageRef,
		&createdAt,
	); err != nil {
		return nil, err
	}

	file.Type = domain.FileType(fileType)
	file.ParentID = parentID.String
	file.IsPublic = isPublic != 0
	file.StorageRef = storageRef.String
	file.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return file, nil
}

// Create creates a new file record.
func (r *fileRepository) Create(ctx context.Context, file *domain.File) error {
	query := `
		INSERT INTO files (id, owner_id, name, type, parent_id, is_public, storage_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		id,
		file.OwnerID,
		file.Name,
		string(file.Type),
		nullString(file.ParentID),
		boolToInt(file.IsPublic),
		nullString(file.StorageRef),
		file.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return r.missingReference(ctx, file)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	file.ID = id
	return nil
}

// missingReference reports which reference of file failed its foreign key.
// SQLite does not name the failed constraint, so the owner is looked up.
func (r *fileRepository) missingReference(ctx context.Context, file *domain.File) error {
	var ownerExists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, file.OwnerID).Scan(&ownerExists)
	if err != nil {
		return fmt.Errorf("failed to check file owner: %w", err)
	}
	if !ownerExists {
		return domain.NewDomainError(domain.ErrOwnerNotFound, "owner is missing", file.OwnerID)
	}
	return domain.NewDomainError(domain.ErrParentNotFound, "parent is missing", file.ParentID)
}

// GetByID retrieves a file record by ID.
func (r *fileRepository) GetByID(ctx context.Context, id string) (*domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`

	file, err := scanFile(r.db.QueryRowContext(ctx, query, id))
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
	// "IS ?" matches NULL for the root listing as well as concrete parents.
	query := `SELECT ` + fileColumns + `
		FROM files
		WHERE owner_id = ? AND parent_id IS ?
		ORDER BY seq ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, nullString(parentID), opts.Limit, opts.Offset)
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
	query := `UPDATE files SET is_public = ? WHERE id = ? RETURNING ` + fileColumns

	file, err := scanFile(r.db.QueryRowContext(ctx, query, boolToInt(isPublic), id))
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

// SaveThumbnail records a derivative, replacing an existing one of the same width.
func (r *fileRepository) SaveThumbnail(ctx context.Context, thumb *domain.Thumbnail) error {
	query := `
		INSERT INTO file_thumbnails (file_id, width, storage_ref, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (file_id, width) DO UPDATE SET storage_ref = excluded.storage_ref, created_at = excluded.created_at
	`

	_, err := r.db.ExecContext(ctx, query,
		thumb.FileID,
		thumb.Width,
		thumb.StorageRef,
		thumb.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewDomainError(domain.ErrFileNotFound, "thumbnail source is missing", thumb.FileID)
		}
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// GetThumbnail retrieves a derivative by file ID and width.
func (r *fileRepository) GetThumbnail(ctx context.Context, fileID string, width int) (*domain.Thumbnail, error) {
	query := `SELECT file_id, width, storage_ref, created_at FROM file_thumbnails WHERE file_id = ? AND width = ?`

	thumb := &domain.Thumbnail{}
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, fileID, width).Scan(
		&thumb.FileID,
		&thumb.Width,
		&thumb.StorageRef,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrThumbnailNotFound
		}
		return nil, fmt.Errorf("failed to get thumbnail: %w", err)
	}

	thumb.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return thumb, nil
}

// Ensure fileRepository implements repository.FileRepository.
var _ repository.FileRepository = (*fileRepository)(nil)
