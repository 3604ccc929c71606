package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/storage"
	"github.com/feral-file/ff-media-library/internal/storageconfig"
	"github.com/feral-file/ff-media-library/internal/store"
)

const (
	DEFAULT_PAGE_LIMIT = 20
	MAX_PAGE_LIMIT     = 100

	// sniffSize is the number of leading bytes inspected to detect a content type
	sniffSize = 3072
)

// ErrDestinationExists is returned when a move or rename targets an occupied object key
var ErrDestinationExists = errors.New("destination already exists")

// ListParams represents the list criteria of the catalog
type ListParams struct {
	// Page is 1-based
	Page  int
	Limit int
	// Folder restricts to one folder; a pointer to "" selects the root
	Folder *string
	Kind   domain.MediaKind
	Search string
}

// ListResult is one page of the catalog
type ListResult struct {
	Items      []domain.MediaFile `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

// UpdateParams holds the editable metadata of an entry; nil fields are left untouched
type UpdateParams struct {
	Title       *string
	AltText     *string
	Description *string
	IsPublic    *bool
}

// UploadParams describes a file to persist in the bucket and the catalog
type UploadParams struct {
	FileName string
	Title    string
	Folder   string
	// ContentType is the client-declared type, sniffed from the content when generic
	ContentType string
	Size        int64
	Body        io.Reader
	// OwnerID owns the new entry; the first active admin is used when empty
	OwnerID string
}

// Service manages the catalog and keeps the bucket in step with it
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.MediaFile, error)
	// Update changes display metadata only
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*domain.MediaFile, error)
	// Move copies the object under folder, repoints the entry and deletes the old object
	Move(ctx context.Context, id uuid.UUID, folder string) (*domain.MediaFile, error)
	// Delete removes the entry, and the object too when fromStorage is set
	Delete(ctx context.Context, id uuid.UUID, fromStorage bool) error
	// Upload writes the object and creates or refreshes its entry
	Upload(ctx context.Context, params UploadParams) (*domain.MediaFile, error)
	// ConvertObject catalogs one existing object, attributing it to the system owner when new
	ConvertObject(ctx context.Context, key string) (*domain.MediaFile, error)
}

type service struct {
	resolver storageconfig.Resolver
	gateway  storage.Gateway
	store    store.Store
	purger   adapter.CDNPurger
}

// New creates a catalog service. A nil purger disables CDN purges.
func New(resolver storageconfig.Resolver, gateway storage.Gateway, st store.Store, purger adapter.CDNPurger) Service {
	if purger == nil {
		purger = adapter.NopPurger{}
	}
	return &service{
		resolver: resolver,
		gateway:  gateway,
		store:    st,
		purger:   purger,
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := max(params.Page, 1)
	limit := params.Limit
	if limit <= 0 {
		limit = DEFAULT_PAGE_LIMIT
	}
	limit = min(limit, MAX_PAGE_LIMIT)

	var folder *string
	if params.Folder != nil {
		f := cleanFolder(*params.Folder)
		folder = &f
	}

	files, total, err := s.store.ListMediaFiles(ctx, store.MediaFileFilter{
		Folder: folder,
		Kind:   params.Kind,
		Search: strings.TrimSpace(params.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list media files: %w", err)
	}

	return &ListResult{
		Items:      toDomainList(files),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.MediaFile, error) {
	m, err := s.store.GetMediaFileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get media file: %w", err)
	}
	if m == nil {
		return nil, domain.ErrMediaNotFound
	}
	return toDomain(m), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*domain.MediaFile, error) {
	input := store.UpdateMediaFileInput{
		AltText:     params.AltText,
		Description: params.Description,
		IsPublic:    params.IsPublic,
	}
	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
		}
		input.Title = &title
	}

	m, err := s.store.UpdateMediaFile(ctx, id, input)
	if err != nil {
		return nil, fmt.Errorf("failed to update media file: %w", err)
	}
	if m == nil {
		return nil, domain.ErrMediaNotFound
	}
	return toDomain(m), nil
}

func (s *service) Move(ctx context.Context, id uuid.UUID, folder string) (*domain.MediaFile, error) {
	folder = cleanFolder(folder)
	if err := validateFolder(folder); err != nil {
		return nil, err
	}

	m, err := s.store.GetMediaFileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get media file: %w", err)
	}
	if m == nil {
		return nil, domain.ErrMediaNotFound
	}

	newKey := domain.JoinKey(folder, m.FileName)
	if newKey == m.ObjectKey {
		return toDomain(m), nil
	}

	occupied, err := s.store.GetMediaFileByObjectKey(ctx, newKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination: %w", err)
	}
	if occupied != nil {
		return nil, fmt.Errorf("%w: %s", ErrDestinationExists, newKey)
	}

	cfg, err := s.resolver.GetActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.Copy(ctx, *cfg, m.ObjectKey, newKey); err != nil {
		return nil, err
	}

	newURL := cfg.FileURL(newKey)
	moved, err := s.store.UpdateMediaFile(ctx, id, store.UpdateMediaFileInput{
		ObjectKey: &newKey,
		FileURL:   &newURL,
		Folder:    &folder,
	})
	if err != nil {
		// the copy is left behind; the next reconciliation catalogs it
		return nil, fmt.Errorf("failed to move media file: %w", err)
	}
	if moved == nil {
		return nil, domain.ErrMediaNotFound
	}

	if err := s.gateway.Delete(ctx, *cfg, m.ObjectKey); err != nil {
		logger.WarnCtx(ctx, "Failed to delete moved object",
			zap.String("key", m.ObjectKey),
			zap.Error(err),
		)
	}
	s.purge(ctx, cfg, m.FileURL)

	logger.InfoCtx(ctx, "Moved media file",
		zap.String("id", id.String()),
		zap.String("from", m.ObjectKey),
		zap.String("to", newKey),
	)
	return toDomain(moved), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, fromStorage bool) error {
	m, err := s.store.GetMediaFileByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get media file: %w", err)
	}
	if m == nil {
		return domain.ErrMediaNotFound
	}

	var cfg *domain.StorageConfig
	if fromStorage {
		cfg, err = s.resolver.GetActiveConfig(ctx)
		if err != nil {
			return err
		}
		if err := s.gateway.Delete(ctx, *cfg, m.ObjectKey); err != nil {
			return err
		}
	}

	deleted, err := s.store.DeleteMediaFile(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	if !deleted {
		return domain.ErrMediaNotFound
	}

	if fromStorage {
		s.purge(ctx, cfg, m.FileURL)
	}

	logger.InfoCtx(ctx, "Deleted media file",
		zap.String("id", id.String()),
		zap.String("key", m.ObjectKey),
		zap.Bool("from_storage", fromStorage),
	)
	return nil
}

func (s *service) Upload(ctx context.Context, params UploadParams) (*domain.MediaFile, error) {
	if params.Body == nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	fileName := cleanFileName(params.FileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	folder := cleanFolder(params.Folder)
	if err := validateFolder(folder); err != nil {
		return nil, err
	}

	cfg, err := s.resolver.GetActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.MaxFileSize > 0 && params.Size > cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the limit of %d", domain.ErrFileTooLarge, params.Size, cfg.MaxFileSize)
	}

	body, contentType, err := detectContentType(params.Body, params.ContentType, fileName)
	if err != nil {
		return nil, err
	}
	if !cfg.AllowsContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileTypeNotAllowed, contentType)
	}

	ownerID, err := s.uploadOwner(ctx, params.OwnerID)
	if err != nil {
		return nil, err
	}

	key, err := s.freeKey(ctx, folder, fileName)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.Put(ctx, *cfg, storage.PutInput{
		Key:         key,
		Body:        body,
		SizeBytes:   params.Size,
		ContentType: contentType,
		Metadata:    map[string]string{domain.METADATA_ORIGINAL_FILENAME: fileName},
	}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = domain.TitleOf(fileName)
	}

	m, _, err := s.store.UpsertMediaFile(ctx, store.UpsertMediaFileInput{
		ObjectKey:   key,
		FileName:    domain.FileNameOf(key),
		FileURL:     cfg.FileURL(key),
		SizeBytes:   params.Size,
		ContentType: contentType,
		Folder:      &folder,
		Title:       title,
		IsPublic:    true,
		OwnerID:     ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save media file: %w", err)
	}

	logger.InfoCtx(ctx, "Uploaded media file",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int64("size", params.Size),
		zap.String("owner_id", ownerID),
	)
	return toDomain(m), nil
}

func (s *service) ConvertObject(ctx context.Context, key string) (*domain.MediaFile, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || domain.IsDirectoryMarker(key) {
		return nil, fmt.Errorf("%w: object key is required", domain.ErrInvalidInput)
	}

	cfg, err := s.resolver.GetActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	info, err := s.gateway.Head(ctx, *cfg, key)
	if err != nil {
		return nil, err
	}

	fileName := domain.FileNameOf(key)
	title := domain.TitleOf(fileName)
	if original := info.Metadata[domain.METADATA_ORIGINAL_FILENAME]; original != "" {
		title = domain.TitleOf(original)
	}
	folder := domain.FolderOf(key)

	m, created, err := s.store.UpsertMediaFile(ctx, store.UpsertMediaFileInput{
		ObjectKey:   key,
		FileName:    fileName,
		FileURL:     cfg.FileURL(key),
		SizeBytes:   info.SizeBytes,
		ContentType: domain.EffectiveContentType(info.ContentType, key),
		Folder:      &folder,
		Title:       title,
		IsPublic:    true,
		OwnerID:     domain.SYSTEM_OWNER_ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save media file: %w", err)
	}

	if created {
		logger.WarnCtx(ctx, "Converted object attributed to the system owner",
			zap.String("key", key),
		)
	}
	return toDomain(m), nil
}

func (s *service) uploadOwner(ctx context.Context, ownerID string) (string, error) {
	if ownerID = strings.TrimSpace(ownerID); ownerID != "" {
		return ownerID, nil
	}

	admin, err := s.store.GetFirstActiveAdmin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve uploader: %w", err)
	}
	if admin == nil {
		return "", domain.ErrNoUploaderAvailable
	}
	return admin.ID, nil
}

// freeKey returns folder/name, suffixed with a ULID before the extension when the key is catalogued
func (s *service) freeKey(ctx context.Context, folder, fileName string) (string, error) {
	key := domain.JoinKey(folder, fileName)
	existing, err := s.store.GetMediaFileByObjectKey(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check object key: %w", err)
	}
	if existing == nil {
		return key, nil
	}

	ext := path.Ext(fileName)
	suffixed := strings.TrimSuffix(fileName, ext) + "-" + strings.ToLower(ulid.Make().String()) + ext
	return domain.JoinKey(folder, suffixed), nil
}

func (s *service) purge(ctx context.Context, cfg *domain.StorageConfig, urls ...string) {
	if cfg == nil || !cfg.CDN.Enabled || len(urls) == 0 {
		return
	}
	if err := s.purger.PurgeFiles(ctx, urls); err != nil {
		logger.WarnCtx(ctx, "Failed to purge CDN cache",
			zap.Strings("urls", urls),
			zap.Error(err),
		)
	}
}

// detectContentType keeps a specific declared type, otherwise sniffs the leading bytes and
// finally falls back to the extension. The returned reader replays the sniffed bytes.
func detectContentType(body io.Reader, declared, fileName string) (io.Reader, string, error) {
	declared = strings.TrimSpace(declared)
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if !domain.IsGenericContentType(declared) {
		return body, strings.ToLower(declared), nil
	}

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	replay := io.MultiReader(bytes.NewReader(head), body)

	detected := mimetype.Detect(head).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	if domain.IsGenericContentType(detected) {
		detected = domain.ClassifyByExtension(fileName)
	}
	return replay, detected, nil
}

func cleanFolder(folder string) string {
	return strings.Trim(strings.TrimSpace(folder), "/")
}

func validateFolder(folder string) error {
	if folder == "" {
		return nil
	}
	for _, segment := range strings.Split(folder, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("%w: invalid folder %q", domain.ErrInvalidInput, folder)
		}
	}
	return nil
}

func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
