// Package storetest provides an in-memory store.Store for service tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/store"
	"github.com/feral-file/ff-media-library/internal/store/schema"
)

// MemoryStore is a concurrency safe in-memory implementation of store.Store
type MemoryStore struct {
	mu      sync.Mutex
	files   map[string]*schema.MediaFile // by object key
	users   map[string]*schema.User
	configs []*schema.StorageConfig
	nextCfg int64

	// Err fields, when set, are returned by the matching method
	ErrGetActiveStorageConfig error
	ErrListMediaFileStates    error
	ErrUpsertMediaFile        error

	// Calls counts invocations per method name
	Calls map[string]int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: map[string]*schema.MediaFile{},
		users: map[string]*schema.User{},
		Calls: map[string]int{},
	}
}

var _ store.Store = (*MemoryStore)(nil)

func (m *MemoryStore) called(name string) {
	m.Calls[name]++
}

// CallCount returns the number of calls to method
func (m *MemoryStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// AddUser seeds a user
func (m *MemoryStore) AddUser(user schema.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.ID] = &user
}

// AddMediaFile seeds a catalog entry
func (m *MemoryStore) AddMediaFile(file schema.MediaFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	m.files[file.ObjectKey] = &file
}

// MediaFiles returns a copy of all entries sorted by object key
func (m *MemoryStore) MediaFiles() []schema.MediaFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.MediaFile, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectKey < out[j].ObjectKey })
	return out
}

func (m *MemoryStore) GetActiveStorageConfig(_ context.Context) (*schema.StorageConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetActiveStorageConfig")
	if m.ErrGetActiveStorageConfig != nil {
		return nil, m.ErrGetActiveStorageConfig
	}
	for i := len(m.configs) - 1; i >= 0; i-- {
		if m.configs[i].IsActive {
			cfg := *m.configs[i]
			return &cfg, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) SaveStorageConfig(_ context.Context, cfg *schema.StorageConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("SaveStorageConfig")
	for _, c := range m.configs {
		c.IsActive = false
	}
	m.nextCfg++
	cfg.ID = m.nextCfg
	cfg.IsActive = true
	cfg.CreatedAt = time.Now()
	stored := *cfg
	m.configs = append(m.configs, &stored)
	return nil
}

func (m *MemoryStore) GetActiveUserByID(_ context.Context, id string) (*schema.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetActiveUserByID")
	if u, ok := m.users[id]; ok && u.IsActive {
		user := *u
		return &user, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetFirstActiveAdmin(_ context.Context) (*schema.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetFirstActiveAdmin")
	var first *schema.User
	for _, u := range m.users {
		if !u.IsActive || !u.Role.IsAdmin() {
			continue
		}
		if first == nil || u.CreatedAt.Before(first.CreatedAt) || (u.CreatedAt.Equal(first.CreatedAt) && u.ID < first.ID) {
			first = u
		}
	}
	if first == nil {
		return nil, nil
	}
	user := *first
	return &user, nil
}

func (m *MemoryStore) ListMediaFileStates(_ context.Context) ([]store.MediaFileState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("ListMediaFileStates")
	if m.ErrListMediaFileStates != nil {
		return nil, m.ErrListMediaFileStates
	}
	states := make([]store.MediaFileState, 0, len(m.files))
	for _, f := range m.files {
		states = append(states, store.MediaFileState{
			ID:          f.ID,
			ObjectKey:   f.ObjectKey,
			OwnerID:     f.OwnerID,
			SizeBytes:   f.SizeBytes,
			ContentType: f.ContentType,
			FileURL:     f.FileURL,
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ObjectKey < states[j].ObjectKey })
	return states, nil
}

func (m *MemoryStore) DeleteMediaFilesByObjectKeys(_ context.Context, keys []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("DeleteMediaFilesByObjectKeys")
	var deleted int64
	for _, k := range keys {
		if _, ok := m.files[k]; ok {
			delete(m.files, k)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) UpsertMediaFile(_ context.Context, input store.UpsertMediaFileInput) (*schema.MediaFile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("UpsertMediaFile")
	if m.ErrUpsertMediaFile != nil {
		return nil, false, m.ErrUpsertMediaFile
	}

	now := time.Now()
	if existing, ok := m.files[input.ObjectKey]; ok {
		existing.FileName = input.FileName
		existing.FileURL = input.FileURL
		existing.SizeBytes = input.SizeBytes
		existing.ContentType = input.ContentType
		existing.Folder = input.Folder
		existing.UpdatedAt = now
		media := *existing
		return &media, false, nil
	}

	media := &schema.MediaFile{
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
	m.files[input.ObjectKey] = media
	out := *media
	return &out, true, nil
}

func (m *MemoryStore) findByID(id uuid.UUID) *schema.MediaFile {
	for _, f := range m.files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (m *MemoryStore) GetMediaFileByID(_ context.Context, id uuid.UUID) (*schema.MediaFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetMediaFileByID")
	if f := m.findByID(id); f != nil {
		media := *f
		return &media, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetMediaFileByObjectKey(_ context.Context, key string) (*schema.MediaFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("GetMediaFileByObjectKey")
	if f, ok := m.files[key]; ok {
		media := *f
		return &media, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListMediaFiles(_ context.Context, filter store.MediaFileFilter) ([]schema.MediaFile, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("ListMediaFiles")

	var matched []schema.MediaFile
	for _, f := range m.files {
		if filter.Folder != nil && f.FolderName() != *filter.Folder {
			continue
		}
		if filter.Kind != "" && domain.KindOfContentType(f.ContentType) != filter.Kind {
			continue
		}
		if s := strings.ToLower(filter.Search); s != "" &&
			!strings.Contains(strings.ToLower(f.Title), s) && !strings.Contains(strings.ToLower(f.FileName), s) {
			continue
		}
		if filter.OwnerID != "" && f.OwnerID != filter.OwnerID {
			continue
		}
		matched = append(matched, *f)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ObjectKey < matched[j].ObjectKey })

	total := int64(len(matched))
	start := min(max(filter.Offset, 0), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (m *MemoryStore) UpdateMediaFile(_ context.Context, id uuid.UUID, input store.UpdateMediaFileInput) (*schema.MediaFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("UpdateMediaFile")

	f := m.findByID(id)
	if f == nil {
		return nil, nil
	}
	if input.Title != nil {
		f.Title = *input.Title
	}
	if input.AltText != nil {
		f.AltText = input.AltText
	}
	if input.Description != nil {
		f.Description = input.Description
	}
	if input.IsPublic != nil {
		f.IsPublic = *input.IsPublic
	}
	if input.FileName != nil {
		f.FileName = *input.FileName
	}
	if input.FileURL != nil {
		f.FileURL = *input.FileURL
	}
	if input.Folder != nil {
		f.Folder = input.Folder
	}
	if input.ObjectKey != nil && *input.ObjectKey != f.ObjectKey {
		delete(m.files, f.ObjectKey)
		f.ObjectKey = *input.ObjectKey
		m.files[f.ObjectKey] = f
	}
	f.UpdatedAt = time.Now()
	media := *f
	return &media, nil
}

func (m *MemoryStore) DeleteMediaFile(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("DeleteMediaFile")
	if f := m.findByID(id); f != nil {
		delete(m.files, f.ObjectKey)
		return true, nil
	}
	return false, nil
}
