package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/store/schema"
)

const (
	// deleteBatchSize keeps IN lists well below PostgreSQL's 65535 parameter limit
	deleteBatchSize = 1000

	defaultListLimit = 50
	maxListLimit     = 200
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values are replaced by the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 20
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	maxIdleConns = min(maxIdleConns, maxOpenConns)

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// GetActiveStorageConfig returns the most recently created active storage config
func (s *pgStore) GetActiveStorageConfig(ctx context.Context) (*schema.StorageConfig, error) {
	var cfg schema.StorageConfig
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active storage config: %w", err)
	}
	return &cfg, nil
}

// SaveStorageConfig stores cfg as the only active config
func (s *pgStore) SaveStorageConfig(ctx context.Context, cfg *schema.StorageConfig) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&schema.StorageConfig{}).
			Where("is_active = ?", true).
			Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("failed to deactivate storage configs: %w", err)
		}

		cfg.ID = 0
		cfg.IsActive = true
		if err := tx.Create(cfg).Error; err != nil {
			return fmt.Errorf("failed to create storage config: %w", err)
		}
		return nil
	})
}

// GetActiveUserByID returns an active user
func (s *pgStore) GetActiveUserByID(ctx context.Context, id string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetFirstActiveAdmin returns the oldest active admin-equivalent user
func (s *pgStore) GetFirstActiveAdmin(ctx context.Context) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND role IN ?", true, []schema.UserRole{schema.UserRoleSuperAdmin, schema.UserRoleAdmin}).
		Order("created_at ASC, id ASC").
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	return &user, nil
}

// ListMediaFileStates returns the reconciliation state of every catalog entry
func (s *pgStore) ListMediaFileStates(ctx context.Context) ([]MediaFileState, error) {
	var states []MediaFileState
	err := s.db.WithContext(ctx).
		Model(&schema.MediaFile{}).
		Select("id", "object_key", "owner_id", "size_bytes", "content_type", "file_url").
		Order("object_key").
		Scan(&states).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list media file states: %w", err)
	}
	return states, nil
}

// DeleteMediaFilesByObjectKeys deletes the entries in batches inside one transaction
func (s *pgStore) DeleteMediaFilesByObjectKeys(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(keys); start += deleteBatchSize {
			end := min(start+deleteBatchSize, len(keys))
			res := tx.Where("object_key IN ?", keys[start:end]).Delete(&schema.MediaFile{})
			if res.Error != nil {
				return fmt.Errorf("failed to delete media files: %w", res.Error)
			}
			deleted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// UpsertMediaFile creates or refreshes the entry keyed by object key
func (s *pgStore) UpsertMediaFile(ctx context.Context, input UpsertMediaFileInput) (*schema.MediaFile, bool, error) {
	var (
		media   schema.MediaFile
		created bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing schema.MediaFile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("object_key = ?", input.ObjectKey).
			First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get media file: %w", err)
		}
		created = errors.Is(err, gorm.ErrRecordNotFound)

		now := time.Now()
		media = schema.MediaFile{
			ID:          uuid.New(),
			Title:       input.Title,
			FileName:    input.FileName,
			AltText:     input.AltText,
			Description: input.Description,
			IsPublic:    input.IsPublic,
			ObjectKey:   input.ObjectKey,
			FileURL:     input.FileURL,
			SizeBytes:   input.SizeBytes,
			ContentType: input.ContentType,
			Folder:      input.Folder,
			OwnerID:     input.OwnerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if !created {
			media.ID = existing.ID
		}

		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "object_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"file_name",
				"file_url",
				"size_bytes",
				"content_type",
				"folder",
				"updated_at",
			}),
		}).Create(&media).Error
		if err != nil {
			return fmt.Errorf("failed to upsert media file: %w", err)
		}

		return tx.Where("object_key = ?", input.ObjectKey).First(&media).Error
	})
	if err != nil {
		return nil, false, err
	}

	return &media, created, nil
}

// GetMediaFileByID retrieves a media file by ID
func (s *pgStore) GetMediaFileByID(ctx context.Context, id uuid.UUID) (*schema.MediaFile, error) {
	var media schema.MediaFile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&media).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get media file: %w", err)
	}
	return &media, nil
}

// GetMediaFileByObjectKey retrieves a media file by object key
func (s *pgStore) GetMediaFileByObjectKey(ctx context.Context, key string) (*schema.MediaFile, error) {
	var media schema.MediaFile
	err := s.db.WithContext(ctx).Where("object_key = ?", key).First(&media).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get media file: %w", err)
	}
	return &media, nil
}

// ListMediaFiles lists media files newest first
func (s *pgStore) ListMediaFiles(ctx context.Context, filter MediaFileFilter) ([]schema.MediaFile, int64, error) {
	query := s.db.WithContext(ctx).Model(&schema.MediaFile{})

	if filter.Folder != nil {
		if *filter.Folder == "" {
			query = query.Where("folder IS NULL OR folder = ''")
		} else {
			query = query.Where("folder = ?", *filter.Folder)
		}
	}

	switch filter.Kind {
	case domain.MediaKindImage, domain.MediaKindVideo, domain.MediaKindAudio:
		query = query.Where("content_type LIKE ?", string(filter.Kind)+"/%")
	case domain.MediaKindDocument:
		query = query.Where("content_type LIKE 'text/%' OR content_type IN ?", []string{"application/pdf", "application/json"})
	case domain.MediaKindOther:
		query = query.Where("content_type NOT LIKE 'image/%' AND content_type NOT LIKE 'video/%' AND content_type NOT LIKE 'audio/%' AND content_type NOT LIKE 'text/%' AND content_type NOT IN ?",
			[]string{"application/pdf", "application/json"})
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where("title ILIKE ? OR file_name ILIKE ?", pattern, pattern)
	}

	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count media files: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	var files []schema.MediaFile
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(max(filter.Offset, 0)).
		Find(&files).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list media files: %w", err)
	}

	return files, total, nil
}

// UpdateMediaFile applies a partial update
func (s *pgStore) UpdateMediaFile(ctx context.Context, id uuid.UUID, input UpdateMediaFileInput) (*schema.MediaFile, error) {
	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.AltText != nil {
		updates["alt_text"] = *input.AltText
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if input.ObjectKey != nil {
		updates["object_key"] = *input.ObjectKey
	}
	if input.FileName != nil {
		updates["file_name"] = *input.FileName
	}
	if input.FileURL != nil {
		updates["file_url"] = *input.FileURL
	}
	if input.Folder != nil {
		updates["folder"] = *input.Folder
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		res := s.db.WithContext(ctx).Model(&schema.MediaFile{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update media file: %w", res.Error)
		}
	}

	return s.GetMediaFileByID(ctx, id)
}

// DeleteMediaFile deletes a media file by ID
func (s *pgStore) DeleteMediaFile(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&schema.MediaFile{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete media file: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
