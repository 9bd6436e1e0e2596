// Package domain contains the core business entities for Alexander Files.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ===========================================
	// File Errors
	// ===========================================

	// ErrFileNotFound indicates the requested file record does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOwnerNotFound indicates a record references an owner that does not exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrParentNotFound indicates the referenced parent record does not exist.
	ErrParentNotFound = errors.New("parent not found")

	// ErrParentNotAFolder indicates the referenced parent is not a folder.
	ErrParentNotAFolder = errors.New("parent is not a folder")

	// ErrThumbnailNotFound indicates no derivative exists for the requested width.
	ErrThumbnailNotFound = errors.New("thumbnail not found")

	// ===========================================
	// Storage Errors
	// ===========================================

	// ErrBlobNotFound indicates the requested payload does not exist.
	ErrBlobNotFound = errors.New("blob not found")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., file id, email).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
