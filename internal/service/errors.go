// Package service provides business logic services for Alexander Files.
package service

import "errors"

// Common service errors.
var (
	// Validation errors
	ErrMissingEmail    = errors.New("missing email")
	ErrMissingPassword = errors.New("missing password")
	ErrMissingName     = errors.New("missing name")
	ErrMissingType     = errors.New("missing or invalid type")
	ErrMissingData     = errors.New("missing data")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// File errors
	ErrFileNotFound         = errors.New("file not found")
	ErrFileAccessDenied     = errors.New("file access denied")
	ErrParentNotFound       = errors.New("parent not found")
	ErrParentNotAFolder     = errors.New("parent is not a folder")
	ErrFolderHasNoContent   = errors.New("folder has no content")
	ErrInvalidThumbnailSize = errors.New("invalid thumbnail size")

	// Job errors
	ErrMissingFileID = errors.New("missing fileId")
	ErrMissingUserID = errors.New("missing userId")
	ErrUnknownJob    = errors.New("unknown job kind")
	ErrInvalidImage  = errors.New("invalid image dimensions")
	ErrJobPanicked   = errors.New("job panicked")

	// General errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInternalError      = errors.New("internal server error")
)
