package schema

import (
	"time"

	"gorm.io/datatypes"
)

// StorageConfig represents the storage_configs table - admin managed object store settings
type StorageConfig struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	Region          string `gorm:"column:region;not null;type:text"`
	BucketName      string `gorm:"column:bucket_name;not null;type:text"`
	AccessKeyID     string `gorm:"column:access_key_id;not null;type:text"`
	SecretAccessKey string `gorm:"column:secret_access_key;not null;type:text"`
	// Endpoint overrides the AWS endpoint for S3-compatible stores
	Endpoint       *string `gorm:"column:endpoint;type:text"`
	ForcePathStyle bool    `gorm:"column:force_path_style;not null;default:false"`
	// URLPrefix replaces the default bucket URL in derived file URLs
	URLPrefix *string `gorm:"column:url_prefix;type:text"`

	// IsActive marks the config in use; at most one row is active
	IsActive bool `gorm:"column:is_active;not null;default:false;index:idx_storage_configs_is_active"`

	// Upload policy
	// MaxFileSize is the largest accepted upload in bytes
	MaxFileSize int64 `gorm:"column:max_file_size;not null"`
	// AllowedFileTypes is a JSON array of MIME glob patterns (e.g., ["image/*"])
	AllowedFileTypes datatypes.JSON `gorm:"column:allowed_file_types;not null;type:jsonb"`
	// FolderStructure describes how uploads are grouped (e.g., "flat", "by-date")
	FolderStructure string `gorm:"column:folder_structure;not null;default:'flat';type:text"`

	// CDN
	CDNEnabled bool    `gorm:"column:cdn_enabled;not null;default:false"`
	CDNURL     *string `gorm:"column:cdn_url;type:text"`

	// CORSOrigins is a JSON array of origins allowed to fetch files
	CORSOrigins datatypes.JSON `gorm:"column:cors_origins;not null;type:jsonb"`

	// Timestamps
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the StorageConfig model
func (StorageConfig) TableName() string {
	return "storage_configs"
}
