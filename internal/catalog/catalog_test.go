package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/catalog"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/mocks"
	"github.com/feral-file/ff-media-library/internal/storage"
	"github.com/feral-file/ff-media-library/internal/storage/storagetest"
	"github.com/feral-file/ff-media-library/internal/storageconfig"
	"github.com/feral-file/ff-media-library/internal/store/schema"
	"github.com/feral-file/ff-media-library/internal/store/storetest"
)

const (
	bucket = "media"
	cdnURL = "https://cdn.example.com"
)

type fixture struct {
	s3      *storagetest.MemoryS3
	store   *storetest.MemoryStore
	service catalog.Service
}

func newFixture(t *testing.T, env map[string]string, purger adapter.CDNPurger) *fixture {
	t.Helper()

	vars := map[string]string{
		"S3_ACCESS_KEY_ID":     "key",
		"S3_SECRET_ACCESS_KEY": "secret",
		"S3_BUCKET_NAME":       bucket,
		"S3_REGION":            "eu-west-1",
	}
	for k, v := range env {
		vars[k] = v
	}

	mem := storagetest.NewMemoryS3(bucket)
	st := storetest.NewMemoryStore()
	resolver := storageconfig.NewResolver(storageconfig.Config{
		LookupEnv: func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		},
	}, st, adapter.NopCache{}, adapter.NewClock())

	return &fixture{
		s3:      mem,
		store:   st,
		service: catalog.New(resolver, storage.NewGateway(&storagetest.Factory{Client: mem}), st, purger),
	}
}

func (f *fixture) seed(key, contentType string) schema.MediaFile {
	folder := domain.FolderOf(key)
	m := schema.MediaFile{
		ID:          uuid.New(),
		Title:       domain.TitleOf(domain.FileNameOf(key)),
		FileName:    domain.FileNameOf(key),
		ObjectKey:   key,
		FileURL:     cdnURL + "/" + key,
		SizeBytes:   10,
		ContentType: contentType,
		Folder:      &folder,
		OwnerID:     "owner-1",
		IsPublic:    true,
	}
	f.store.AddMediaFile(m)
	f.s3.PutBytes(key, make([]byte, 10), contentType, nil)
	return m
}

func ptr[T any](v T) *T {
	return &v
}

func TestUpload(t *testing.T) {
	f := newFixture(t, nil, nil)
	data := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 100))

	media, err := f.service.Upload(context.Background(), catalog.UploadParams{
		FileName:    "Sunset.png",
		Folder:      "/trips/2024/",
		ContentType: "application/octet-stream",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
		OwnerID:     "user-7",
	})
	require.NoError(t, err)

	assert.Equal(t, "trips/2024/Sunset.png", media.ObjectKey)
	assert.Equal(t, "Sunset", media.Title)
	assert.Equal(t, "trips/2024", media.Folder)
	assert.Equal(t, "image/png", media.ContentType)
	assert.Equal(t, domain.MediaKindImage, media.Kind)
	assert.Equal(t, "user-7", media.OwnerID)
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/trips/2024/Sunset.png", media.FileURL)

	obj, ok := f.s3.Object("trips/2024/Sunset.png")
	require.True(t, ok)
	assert.Equal(t, data, obj.Body)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "Sunset.png", obj.Metadata[domain.METADATA_ORIGINAL_FILENAME])
}

func TestUpload_SuffixesTakenKey(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.seed("docs/report.pdf", "application/pdf")

	media, err := f.service.Upload(context.Background(), catalog.UploadParams{
		FileName:    "report.pdf",
		Title:       "Quarterly report",
		Folder:      "docs",
		ContentType: "application/pdf",
		Size:        4,
		Body:        strings.NewReader("%PDF"),
		OwnerID:     "user-7",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^docs/report-[0-9a-z]{26}\.pdf$`, media.ObjectKey)
	assert.Equal(t, "Quarterly report", media.Title)
	assert.Len(t, f.store.MediaFiles(), 2)
}

func TestUpload_DefaultsOwnerToFirstAdmin(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.store.AddUser(schema.User{ID: "admin-1", Email: "admin@example.com", Role: schema.UserRoleAdmin, IsActive: true})

	media, err := f.service.Upload(context.Background(), catalog.UploadParams{
		FileName:    "notes.txt",
		ContentType: "text/plain; charset=utf-8",
		Size:        5,
		Body:        strings.NewReader("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", media.OwnerID)
	assert.Equal(t, "text/plain", media.ContentType)
	assert.Equal(t, "", media.Folder)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		params  catalog.UploadParams
		wantErr error
	}{
		{
			name:    "type outside allow-list",
			params:  catalog.UploadParams{FileName: "tool.exe", ContentType: "application/x-msdownload", Size: 2, Body: strings.NewReader("MZ"), OwnerID: "u"},
			wantErr: domain.ErrFileTypeNotAllowed,
		},
		{
			name:    "sniffed type outside allow-list",
			params:  catalog.UploadParams{FileName: "archive", Size: 4, Body: bytes.NewReader([]byte("PK\x03\x04")), OwnerID: "u"},
			wantErr: domain.ErrFileTypeNotAllowed,
		},
		{
			name:    "over max size",
			params:  catalog.UploadParams{FileName: "huge.mp4", ContentType: "video/mp4", Size: 60 * domain.MB, Body: strings.NewReader("x"), OwnerID: "u"},
			wantErr: domain.ErrFileTooLarge,
		},
		{
			name:    "missing name",
			params:  catalog.UploadParams{FileName: "  ", Size: 1, Body: strings.NewReader("x"), OwnerID: "u"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "folder traversal",
			params:  catalog.UploadParams{FileName: "a.txt", Folder: "../secrets", Size: 1, Body: strings.NewReader("x"), OwnerID: "u"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "no owner available",
			params:  catalog.UploadParams{FileName: "a.txt", ContentType: "text/plain", Size: 1, Body: strings.NewReader("x")},
			wantErr: domain.ErrNoUploaderAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			_, err := f.service.Upload(context.Background(), tt.params)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.s3.Calls("PutObject"))
			assert.Empty(t, f.store.MediaFiles())
		})
	}
}

func TestUpload_NotConfigured(t *testing.T) {
	f := newFixture(t, map[string]string{"S3_BUCKET_NAME": ""}, nil)
	_, err := f.service.Upload(context.Background(), catalog.UploadParams{
		FileName: "a.txt", ContentType: "text/plain", Size: 1, Body: strings.NewReader("x"), OwnerID: "u",
	})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestList(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.seed("a.jpg", "image/jpeg")
	f.seed("b.mp4", "video/mp4")
	f.seed("photos/c.jpg", "image/jpeg")
	f.seed("photos/d.png", "image/png")
	f.seed("photos/notes.txt", "text/plain")

	tests := []struct {
		name      string
		params    catalog.ListParams
		wantKeys  []string
		wantTotal int64
		wantPages int
	}{
		{"defaults", catalog.ListParams{}, []string{"a.jpg", "b.mp4", "photos/c.jpg", "photos/d.png", "photos/notes.txt"}, 5, 1},
		{"root folder", catalog.ListParams{Folder: ptr("")}, []string{"a.jpg", "b.mp4"}, 2, 1},
		{"folder with slashes", catalog.ListParams{Folder: ptr("/photos/")}, []string{"photos/c.jpg", "photos/d.png", "photos/notes.txt"}, 3, 1},
		{"images", catalog.ListParams{Kind: domain.MediaKindImage}, []string{"a.jpg", "photos/c.jpg", "photos/d.png"}, 3, 1},
		{"search", catalog.ListParams{Search: " NOTES "}, []string{"photos/notes.txt"}, 1, 1},
		{"second page", catalog.ListParams{Page: 2, Limit: 2}, []string{"photos/c.jpg", "photos/d.png"}, 5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.service.List(context.Background(), tt.params)
			require.NoError(t, err)

			keys := make([]string, 0, len(res.Items))
			for _, m := range res.Items {
				keys = append(keys, m.ObjectKey)
			}
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.wantPages, res.TotalPages)
		})
	}
}

func TestList_ClampsLimit(t *testing.T) {
	f := newFixture(t, nil, nil)
	res, err := f.service.List(context.Background(), catalog.ListParams{Page: -1, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, catalog.MAX_PAGE_LIMIT, res.Limit)
	assert.Empty(t, res.Items)
}

func TestGetAndUpdate(t *testing.T) {
	f := newFixture(t, nil, nil)
	m := f.seed("a.jpg", "image/jpeg")

	got, err := f.service.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)

	updated, err := f.service.Update(context.Background(), m.ID, catalog.UpdateParams{
		Title:    ptr("  Beach  "),
		AltText:  ptr("sand and sea"),
		IsPublic: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Beach", updated.Title)
	assert.Equal(t, "sand and sea", *updated.AltText)
	assert.False(t, updated.IsPublic)
	assert.Equal(t, "a.jpg", updated.ObjectKey)

	_, err = f.service.Update(context.Background(), m.ID, catalog.UpdateParams{Title: ptr(" ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrMediaNotFound)
	_, err = f.service.Update(context.Background(), uuid.New(), catalog.UpdateParams{IsPublic: ptr(true)})
	assert.ErrorIs(t, err, domain.ErrMediaNotFound)
}

func TestMove(t *testing.T) {
	ctrl := gomock.NewController(t)
	purger := mocks.NewMockCDNPurger(ctrl)
	f := newFixture(t, map[string]string{"CDN_URL": cdnURL}, purger)
	m := f.seed("inbox/cat photo.jpg", "image/jpeg")

	purger.EXPECT().PurgeFiles(gomock.Any(), []string{cdnURL + "/inbox/cat photo.jpg"}).Return(nil)

	moved, err := f.service.Move(context.Background(), m.ID, "/pets/")
	require.NoError(t, err)

	assert.Equal(t, m.ID, moved.ID)
	assert.Equal(t, "pets/cat photo.jpg", moved.ObjectKey)
	assert.Equal(t, "pets", moved.Folder)
	assert.Equal(t, cdnURL+"/pets/cat%20photo.jpg", moved.FileURL)

	_, ok := f.s3.Object("inbox/cat photo.jpg")
	assert.False(t, ok)
	_, ok = f.s3.Object("pets/cat photo.jpg")
	assert.True(t, ok)
}

func TestMove_ToRootAndNoop(t *testing.T) {
	f := newFixture(t, nil, nil)
	m := f.seed("inbox/a.jpg", "image/jpeg")

	moved, err := f.service.Move(context.Background(), m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", moved.ObjectKey)
	assert.Equal(t, "", moved.Folder)

	again, err := f.service.Move(context.Background(), m.ID, "/")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", again.ObjectKey)
	assert.Equal(t, 1, f.s3.Calls("CopyObject"))
}

func TestMove_Failures(t *testing.T) {
	f := newFixture(t, nil, nil)
	a := f.seed("inbox/a.jpg", "image/jpeg")
	f.seed("archive/a.jpg", "image/jpeg")
	missing := f.seed("inbox/gone.jpg", "image/jpeg")
	f.s3.Remove("inbox/gone.jpg")

	_, err := f.service.Move(context.Background(), a.ID, "archive")
	assert.ErrorIs(t, err, catalog.ErrDestinationExists)

	_, err = f.service.Move(context.Background(), a.ID, "a/../b")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.Move(context.Background(), uuid.New(), "x")
	assert.ErrorIs(t, err, domain.ErrMediaNotFound)

	_, err = f.service.Move(context.Background(), missing.ID, "archive")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	got, err := f.service.Get(context.Background(), missing.ID)
	require.NoError(t, err)
	assert.Equal(t, "inbox/gone.jpg", got.ObjectKey)
}

func TestDelete(t *testing.T) {
	t.Run("catalog only", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		m := f.seed("a.jpg", "image/jpeg")

		require.NoError(t, f.service.Delete(context.Background(), m.ID, false))
		assert.Empty(t, f.store.MediaFiles())
		_, ok := f.s3.Object("a.jpg")
		assert.True(t, ok)
	})

	t.Run("from storage purges the cdn", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		purger := mocks.NewMockCDNPurger(ctrl)
		f := newFixture(t, map[string]string{"CDN_URL": cdnURL}, purger)
		m := f.seed("a.jpg", "image/jpeg")

		purger.EXPECT().PurgeFiles(gomock.Any(), []string{cdnURL + "/a.jpg"}).Return(errors.New("rate limited"))

		require.NoError(t, f.service.Delete(context.Background(), m.ID, true))
		assert.Empty(t, f.store.MediaFiles())
		_, ok := f.s3.Object("a.jpg")
		assert.False(t, ok)
	})

	t.Run("storage failure keeps the entry", func(t *testing.T) {
		f := newFixture(t, map[string]string{"S3_BUCKET_NAME": "other"}, nil)
		m := f.seed("a.jpg", "image/jpeg")

		err := f.service.Delete(context.Background(), m.ID, true)
		assert.ErrorIs(t, err, domain.ErrBucketNotFound)
		assert.Len(t, f.store.MediaFiles(), 1)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		assert.ErrorIs(t, f.service.Delete(context.Background(), uuid.New(), true), domain.ErrMediaNotFound)
	})
}

func TestConvertObject(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.s3.PutBytes("scans/page-1.pdf", make([]byte, 42), "binary/octet-stream", map[string]string{
		domain.METADATA_ORIGINAL_FILENAME: "Contract page 1.pdf",
	})

	media, err := f.service.ConvertObject(context.Background(), "/scans/page-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "scans/page-1.pdf", media.ObjectKey)
	assert.Equal(t, domain.SYSTEM_OWNER_ID, media.OwnerID)
	assert.Equal(t, "Contract page 1", media.Title)
	assert.Equal(t, "application/pdf", media.ContentType)
	assert.EqualValues(t, 42, media.SizeBytes)
	assert.Equal(t, "scans", media.Folder)

	_, err = f.service.ConvertObject(context.Background(), "scans/missing.pdf")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	_, err = f.service.ConvertObject(context.Background(), "scans/")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
