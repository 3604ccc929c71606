package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/store/schema"
)

// Store defines the interface for database operations
type Store interface {
	// GetActiveStorageConfig returns the most recently created active storage config, or nil
	GetActiveStorageConfig(ctx context.Context) (*schema.StorageConfig, error)
	// SaveStorageConfig deactivates every config and stores cfg as the only active one
	SaveStorageConfig(ctx context.Context, cfg *schema.StorageConfig) error

	// GetActiveUserByID returns the user if it exists and is active, or nil
	GetActiveUserByID(ctx context.Context, id string) (*schema.User, error)
	// GetFirstActiveAdmin returns the oldest active admin-equivalent user, or nil
	GetFirstActiveAdmin(ctx context.Context) (*schema.User, error)

	// ListMediaFileStates returns the reconciliation state of every catalog entry
	ListMediaFileStates(ctx context.Context) ([]MediaFileState, error)
	// DeleteMediaFilesByObjectKeys deletes the entries for the keys and returns the number removed
	DeleteMediaFilesByObjectKeys(ctx context.Context, keys []string) (int64, error)
	// UpsertMediaFile creates or updates the entry for input.ObjectKey, reporting whether it was created
	UpsertMediaFile(ctx context.Context, input UpsertMediaFileInput) (*schema.MediaFile, bool, error)

	// GetMediaFileByID returns the entry or nil
	GetMediaFileByID(ctx context.Context, id uuid.UUID) (*schema.MediaFile, error)
	// GetMediaFileByObjectKey returns the entry or nil
	GetMediaFileByObjectKey(ctx context.Context, key string) (*schema.MediaFile, error)
	// ListMediaFiles returns a page of entries matching filter and the total match count
	ListMediaFiles(ctx context.Context, filter MediaFileFilter) ([]schema.MediaFile, int64, error)
	// UpdateMediaFile applies the non-nil fields of input, returning nil if the entry does not exist
	UpdateMediaFile(ctx context.Context, id uuid.UUID, input UpdateMediaFileInput) (*schema.MediaFile, error)
	// DeleteMediaFile deletes the entry, reporting whether it existed
	DeleteMediaFile(ctx context.Context, id uuid.UUID) (bool, error)
}

// MediaFileState is the subset of a catalog entry the reconciler compares against the store
type MediaFileState struct {
	ID          uuid.UUID
	ObjectKey   string
	OwnerID     string
	SizeBytes   int64
	ContentType string
	FileURL     string
}

// UpsertMediaFileInput represents the data for creating or refreshing a catalog entry
type UpsertMediaFileInput struct {
	ObjectKey   string
	FileName    string
	FileURL     string
	SizeBytes   int64
	ContentType string
	Folder      *string
	// Fields below are only written when the entry is created
	Title       string
	AltText     *string
	Description *string
	IsPublic    bool
	OwnerID     string
}

// UpdateMediaFileInput represents a partial update; nil fields are left untouched
type UpdateMediaFileInput struct {
	Title       *string
	AltText     *string
	Description *string
	IsPublic    *bool
	// Move fields, set together when an entry changes folder
	ObjectKey *string
	FileName  *string
	FileURL   *string
	Folder    *string
}

// MediaFileFilter represents the list criteria of the catalog
type MediaFileFilter struct {
	// Folder restricts to one folder; a pointer to "" selects the root
	Folder *string
	Kind   domain.MediaKind
	// Search matches title or file name, case insensitive
	Search  string
	OwnerID string
	Limit   int
	Offset  int
}
