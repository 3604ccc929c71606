package schema

import (
	"time"

	"github.com/google/uuid"
)

// MediaFile represents the media_files table - one catalog entry per object in the store
type MediaFile struct {
	// ID is the internal database primary key
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`

	// Display metadata
	// Title is the human readable name, derived from the file name when not given
	Title string `gorm:"column:title;not null;type:text"`
	// FileName is the last path segment of the object key
	FileName string `gorm:"column:file_name;not null;type:text"`
	// AltText is the accessibility text for images
	AltText *string `gorm:"column:alt_text;type:text"`
	// Description is free-form text
	Description *string `gorm:"column:description;type:text"`
	// IsPublic marks the file as visible without an owner context
	IsPublic bool `gorm:"column:is_public;not null;default:true"`

	// Object store linkage
	// ObjectKey is the reconciliation join key with the object store
	ObjectKey string `gorm:"column:object_key;not null;type:text;uniqueIndex:idx_media_files_object_key"`
	// FileURL is the public URL derived from the active storage config
	FileURL string `gorm:"column:file_url;not null;type:text"`
	// SizeBytes is the object size in bytes
	SizeBytes int64 `gorm:"column:size_bytes;not null"`
	// ContentType is the MIME type of the object
	ContentType string `gorm:"column:content_type;not null;type:text;index:idx_media_files_content_type"`
	// Folder is the key prefix without trailing slash, empty for the root
	Folder *string `gorm:"column:folder;type:text;index:idx_media_files_folder"`

	// OwnerID references the user who uploaded or was attributed the file
	OwnerID string `gorm:"column:owner_id;not null;type:text;index:idx_media_files_owner_id"`

	// Timestamps
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz;index:idx_media_files_created_at"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the MediaFile model
func (MediaFile) TableName() string {
	return "media_files"
}

// FolderName returns the folder or "" for the root
func (m *MediaFile) FolderName() string {
	if m.Folder == nil {
		return ""
	}
	return *m.Folder
}
