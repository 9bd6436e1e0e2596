package domain

import (
	"mime"
	"path/filepath"
	"time"
)

// FileType is the closed set of file record kinds.
type FileType string

const (
	// FileTypeFolder groups other records and carries no payload.
	FileTypeFolder FileType = "folder"

	// FileTypeFile is an arbitrary byte payload.
	FileTypeFile FileType = "file"

	// FileTypeImage is a payload the worker derives thumbnails from.
	FileTypeImage FileType = "image"
)

// IsValid returns true if the file type belongs to the closed set.
func (t FileType) IsValid() bool {
	switch t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return true
	}
	return false
}

// HasPayload returns true if records of this type carry bytes.
func (t FileType) HasPayload() bool {
	return t == FileTypeFile || t == FileTypeImage
}

// RootParentID is the wire value for "no parent".
const RootParentID = "0"

// ThumbnailWidths are the widths the worker generates for images, largest first.
var ThumbnailWidths = []int{500, 250, 100}

// IsThumbnailWidth reports whether width is one of ThumbnailWidths.
func IsThumbnailWidth(width int) bool {
	for _, w := range ThumbnailWidths {
		if w == width {
			return true
		}
	}
	return false
}

// File is the metadata record for a folder, file or image.
type File struct {
	// ID is the opaque identifier assigned when the record is stored.
	ID string

	// OwnerID is the ID of the creating user. Immutable.
	OwnerID string

	// Name is the display name.
	Name string

	// Type is one of folder, file or image.
	Type FileType

	// ParentID references a folder record. Empty means top level.
	ParentID string

	// IsPublic allows non-owners, including anonymous callers, to read the record.
	IsPublic bool

	// StorageRef addresses the payload in the storage backend. Empty for folders.
	StorageRef string

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time
}

// NewFile creates a new private File owned by ownerID.
func NewFile(ownerID, name string, fileType FileType, parentID string) *File {
	return &File{
		OwnerID:   ownerID,
		Name:      name,
		Type:      fileType,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
}

// IsFolder returns true if the record is a folder.
func (f *File) IsFolder() bool {
	return f.Type == FileTypeFolder
}

// IsOwnedBy returns true if userID owns the record.
func (f *File) IsOwnedBy(userID string) bool {
	return userID != "" && f.OwnerID == userID
}

// CanBeReadBy returns true if userID (possibly empty for anonymous callers)
// may read the record and its payload.
func (f *File) CanBeReadBy(userID string) bool {
	return f.IsPublic || f.IsOwnedBy(userID)
}

// ContentType returns the MIME type derived from the file name extension.
func (f *File) ContentType() string {
	if ct := mime.TypeByExtension(filepath.Ext(f.Name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Thumbnail is a resized derivative of an image record.
type Thumbnail struct {
	// FileID is the image the thumbnail was derived from.
	FileID string

	// Width is the target width in pixels.
	Width int

	// StorageRef addresses the derivative in the storage backend.
	StorageRef string

	// CreatedAt is the timestamp when the thumbnail was stored.
	CreatedAt time.Time
}

// JobKind identifies the work a background job performs.
type JobKind string

const (
	// JobKindFile post-processes a newly created file record.
	JobKindFile JobKind = "file"

	// JobKindUser runs the welcome flow for a newly registered user.
	JobKindUser JobKind = "user"
)

// Job is a unit of background work referencing a stored record.
type Job struct {
	Kind   JobKind `json:"kind"`
	FileID string  `json:"fileId,omitempty"`
	UserID string  `json:"userId,omitempty"`
}
