// Package repository defines data access interfaces for Alexander Files.
// These interfaces abstract database operations, allowing for different implementations
// (PostgreSQL, SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/alexander-files/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create stores a new user and assigns its ID.
	// Returns domain.ErrUserAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByCredentials retrieves the user matching both email and password digest.
	GetByCredentials(ctx context.Context, email, passwordHash string) (*domain.User, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Count returns the number of users.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// File Repository
// =============================================================================

// FileRepository defines the interface for file metadata access.
type FileRepository interface {
	// Create stores a new file record and assigns its ID.
	Create(ctx context.Context, file *domain.File) error

	// GetByID retrieves a file record by ID.
	GetByID(ctx context.Context, id string) (*domain.File, error)

	// List returns records owned by ownerID under parentID (empty for root)
	// in insertion order.
	List(ctx context.Context, ownerID, parentID string, opts ListOptions) ([]*domain.File, error)

	// UpdateVisibility atomically sets is_public and returns the updated record.
	UpdateVisibility(ctx context.Context, id string, isPublic bool) (*domain.File, error)

	// Count returns the number of file records.
	Count(ctx context.Context) (int64, error)

	// SaveThumbnail records (or replaces) a derivative for a file.
	SaveThumbnail(ctx context.Context, thumb *domain.Thumbnail) error

	// GetThumbnail retrieves the derivative of a file for the given width.
	GetThumbnail(ctx context.Context, fileID string, width int) (*domain.Thumbnail, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}

// Repositories holds all repository instances.
type Repositories struct {
	User UserRepository
	File FileRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}
