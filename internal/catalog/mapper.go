package catalog

import (
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/store/schema"
)

func toDomain(m *schema.MediaFile) *domain.MediaFile {
	if m == nil {
		return nil
	}
	return &domain.MediaFile{
		ID:          m.ID,
		Title:       m.Title,
		FileName:    m.FileName,
		FileURL:     m.FileURL,
		ObjectKey:   m.ObjectKey,
		SizeBytes:   m.SizeBytes,
		ContentType: m.ContentType,
		Folder:      m.FolderName(),
		AltText:     m.AltText,
		Description: m.Description,
		IsPublic:    m.IsPublic,
		OwnerID:     m.OwnerID,
		Kind:        domain.KindOfContentType(m.ContentType),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toDomainList(files []schema.MediaFile) []domain.MediaFile {
	out := make([]domain.MediaFile, 0, len(files))
	for i := range files {
		out = append(out, *toDomain(&files[i]))
	}
	return out
}
