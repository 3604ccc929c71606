package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

// buildTestUpsert creates an upsert input for key owned by owner
func buildTestUpsert(key, owner string, size int64) UpsertMediaFileInput {
	fileName := domain.FileNameOf(key)
	folder := domain.FolderOf(key)
	return UpsertMediaFileInput{
		ObjectKey:   key,
		FileName:    fileName,
		FileURL:     "https://cdn.example.com/" + key,
		SizeBytes:   size,
		ContentType: domain.ClassifyByExtension(key),
		Folder:      &folder,
		Title:       domain.TitleOf(fileName),
		IsPublic:    true,
		OwnerID:     owner,
	}
}

// buildTestStorageConfig creates a storage config for bucket
func buildTestStorageConfig(bucket string) *schema.StorageConfig {
	return &schema.StorageConfig{
		Region:           "eu-west-1",
		BucketName:       bucket,
		AccessKeyID:      "AKIA" + bucket,
		SecretAccessKey:  "secret",
		MaxFileSize:      10 * domain.MB,
		AllowedFileTypes: datatypes.JSON([]byte(`["image/*"]`)),
		FolderStructure:  "flat",
		CORSOrigins:      datatypes.JSON([]byte(`[]`)),
	}
}

// createTestUser inserts a user directly, since users are owned by another service
func createTestUser(t *testing.T, s Store, id string, role schema.UserRole, active bool, createdAt time.Time) {
	t.Helper()
	pg, ok := s.(*pgStore)
	require.True(t, ok)
	require.NoError(t, pg.db.Create(&schema.User{
		ID:        id,
		Email:     id + "@example.com",
		Role:      role,
		IsActive:  active,
		CreatedAt: createdAt,
	}).Error)
	// gorm skips zero-value booleans that carry a database default
	if !active {
		require.NoError(t, pg.db.Model(&schema.User{}).Where("id = ?", id).Update("is_active", false).Error)
	}
}

// =============================================================================
// Tests
// =============================================================================

func testStorageConfig(t *testing.T, store Store) {
	ctx := context.Background()

	cfg, err := store.GetActiveStorageConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, store.SaveStorageConfig(ctx, buildTestStorageConfig("first")))
	require.NoError(t, store.SaveStorageConfig(ctx, buildTestStorageConfig("second")))

	cfg, err = store.GetActiveStorageConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "second", cfg.BucketName)
	assert.True(t, cfg.IsActive)
	assert.JSONEq(t, `["image/*"]`, string(cfg.AllowedFileTypes))
}

func testUsers(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	createTestUser(t, store, "editor-1", schema.UserRoleEditor, true, base)
	createTestUser(t, store, "admin-inactive", schema.UserRoleAdmin, false, base.Add(time.Hour))
	createTestUser(t, store, "admin-2", schema.UserRoleAdmin, true, base.Add(3*time.Hour))
	createTestUser(t, store, "super-1", schema.UserRoleSuperAdmin, true, base.Add(2*time.Hour))

	admin, err := store.GetFirstActiveAdmin(ctx)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "super-1", admin.ID)

	user, err := store.GetActiveUserByID(ctx, "editor-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, schema.UserRoleEditor, user.Role)

	user, err = store.GetActiveUserByID(ctx, "admin-inactive")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = store.GetActiveUserByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func testUpsertMediaFile(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create then update keeps identity and owner", func(t *testing.T) {
		media, created, err := store.UpsertMediaFile(ctx, buildTestUpsert("photos/cat.jpg", "owner-1", 100))
		require.NoError(t, err)
		require.NotNil(t, media)
		assert.True(t, created)
		assert.Equal(t, "cat", media.Title)
		assert.Equal(t, "photos", media.FolderName())
		assert.Equal(t, "image/jpeg", media.ContentType)

		input := buildTestUpsert("photos/cat.jpg", "owner-2", 250)
		input.Title = "ignored on update"
		updated, created, err := store.UpsertMediaFile(ctx, input)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, media.ID, updated.ID)
		assert.Equal(t, int64(250), updated.SizeBytes)
		assert.Equal(t, "cat", updated.Title)
		assert.Equal(t, "owner-1", updated.OwnerID)
	})

	t.Run("states and delete by keys", func(t *testing.T) {
		for _, key := range []string{"a.png", "docs/b.pdf", "c.mp4"} {
			_, _, err := store.UpsertMediaFile(ctx, buildTestUpsert(key, "owner-1", 10))
			require.NoError(t, err)
		}

		states, err := store.ListMediaFileStates(ctx)
		require.NoError(t, err)
		keys := make([]string, 0, len(states))
		for _, s := range states {
			keys = append(keys, s.ObjectKey)
			assert.NotEqual(t, uuid.Nil, s.ID)
		}
		assert.Subset(t, keys, []string{"a.png", "docs/b.pdf", "c.mp4"})

		deleted, err := store.DeleteMediaFilesByObjectKeys(ctx, []string{"docs/b.pdf", "missing.txt"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		media, err := store.GetMediaFileByObjectKey(ctx, "docs/b.pdf")
		require.NoError(t, err)
		assert.Nil(t, media)

		deleted, err = store.DeleteMediaFilesByObjectKeys(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("delete in batches", func(t *testing.T) {
		keys := make([]string, 0, deleteBatchSize+5)
		for i := range deleteBatchSize + 5 {
			key := fmt.Sprintf("bulk/%04d.txt", i)
			keys = append(keys, key)
			_, _, err := store.UpsertMediaFile(ctx, buildTestUpsert(key, "owner-1", 1))
			require.NoError(t, err)
		}

		deleted, err := store.DeleteMediaFilesByObjectKeys(ctx, keys)
		require.NoError(t, err)
		assert.Equal(t, int64(deleteBatchSize+5), deleted)
	})
}

func testListMediaFiles(t *testing.T, store Store) {
	ctx := context.Background()

	for _, key := range []string{"hero.jpg", "gallery/sunset.png", "gallery/trailer.mp4", "docs/Annual_Report.pdf", "theme.mp3"} {
		_, _, err := store.UpsertMediaFile(ctx, buildTestUpsert(key, "owner-1", 10))
		require.NoError(t, err)
	}
	_, _, err := store.UpsertMediaFile(ctx, buildTestUpsert("private/notes.txt", "owner-2", 10))
	require.NoError(t, err)

	tests := []struct {
		name     string
		filter   MediaFileFilter
		expected []string
		total    int64
	}{
		{
			name:     "folder",
			filter:   MediaFileFilter{Folder: stringPtr("gallery")},
			expected: []string{"gallery/sunset.png", "gallery/trailer.mp4"},
			total:    2,
		},
		{
			name:     "root folder",
			filter:   MediaFileFilter{Folder: stringPtr("")},
			expected: []string{"hero.jpg", "theme.mp3"},
			total:    2,
		},
		{
			name:     "images",
			filter:   MediaFileFilter{Kind: domain.MediaKindImage},
			expected: []string{"hero.jpg", "gallery/sunset.png"},
			total:    2,
		},
		{
			name:     "documents",
			filter:   MediaFileFilter{Kind: domain.MediaKindDocument},
			expected: []string{"docs/Annual_Report.pdf", "private/notes.txt"},
			total:    2,
		},
		{
			name:     "search is case insensitive and escapes wildcards",
			filter:   MediaFileFilter{Search: "annual_"},
			expected: []string{"docs/Annual_Report.pdf"},
			total:    1,
		},
		{
			name:     "owner",
			filter:   MediaFileFilter{OwnerID: "owner-2"},
			expected: []string{"private/notes.txt"},
			total:    1,
		},
		{
			name:   "pagination limits the page but not the total",
			filter: MediaFileFilter{Limit: 2, Offset: 1},
			total:  6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, total, err := store.ListMediaFiles(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			if tt.expected == nil {
				assert.Len(t, files, 2)
				return
			}
			keys := make([]string, 0, len(files))
			for _, f := range files {
				keys = append(keys, f.ObjectKey)
			}
			assert.ElementsMatch(t, tt.expected, keys)
		})
	}
}

func testUpdateAndDeleteMediaFile(t *testing.T, store Store) {
	ctx := context.Background()

	media, _, err := store.UpsertMediaFile(ctx, buildTestUpsert("old/clip.mp4", "owner-1", 10))
	require.NoError(t, err)

	updated, err := store.UpdateMediaFile(ctx, media.ID, UpdateMediaFileInput{
		Title:     stringPtr("Launch clip"),
		AltText:   stringPtr("A rocket"),
		IsPublic:  boolPtr(false),
		ObjectKey: stringPtr("new/clip.mp4"),
		FileName:  stringPtr("clip.mp4"),
		FileURL:   stringPtr("https://cdn.example.com/new/clip.mp4"),
		Folder:    stringPtr("new"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Launch clip", updated.Title)
	assert.Equal(t, "A rocket", *updated.AltText)
	assert.False(t, updated.IsPublic)
	assert.Equal(t, "new/clip.mp4", updated.ObjectKey)
	assert.Equal(t, "new", updated.FolderName())

	missing, err := store.UpdateMediaFile(ctx, uuid.New(), UpdateMediaFileInput{Title: stringPtr("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)

	existed, err := store.DeleteMediaFile(ctx, media.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteMediaFile(ctx, media.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}

// RunStoreTests runs every store test against the implementation produced by initDB
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"StorageConfig", testStorageConfig},
		{"Users", testUsers},
		{"UpsertMediaFile", testUpsertMediaFile},
		{"ListMediaFiles", testListMediaFiles},
		{"UpdateAndDeleteMediaFile", testUpdateAndDeleteMediaFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}

func TestNormalizeConnectionPoolSettings(t *testing.T) {
	open, idle, life, idleTime := NormalizeConnectionPoolSettings(0, 0, 0, 0)
	assert.Equal(t, 20, open)
	assert.Equal(t, 5, idle)
	assert.Equal(t, 5*time.Minute, life)
	assert.Equal(t, 10*time.Minute, idleTime)

	open, idle, _, _ = NormalizeConnectionPoolSettings(3, 10, time.Minute, time.Minute)
	assert.Equal(t, 3, open)
	assert.Equal(t, 3, idle)
}
