package domain

import (
	"time"

	"github.com/google/uuid"
)

// MediaFile is a catalog entry as exposed over the API
type MediaFile struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	FileName    string    `json:"fileName"`
	FileURL     string    `json:"fileUrl"`
	ObjectKey   string    `json:"objectKey"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	// Folder is "" for the bucket root
	Folder      string    `json:"folder"`
	AltText     *string   `json:"altText"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	OwnerID     string    `json:"ownerId"`
	Kind        MediaKind `json:"kind"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SyncSummary is the outcome of a catalog reconciliation pass as exposed over the API
type SyncSummary struct {
	RunID   string `json:"runId"`
	Synced  int    `json:"synced"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Deleted int    `json:"deleted"`
	Skipped int    `json:"skipped"`
}
