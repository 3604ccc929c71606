package rest

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/feral-file/ff-media-library/internal/catalog"
	"github.com/feral-file/ff-media-library/internal/domain"
)

// DownloadQueryParams holds query parameters for GET /media/download
type DownloadQueryParams struct {
	Key  string `form:"key" binding:"required"`
	View bool   `form:"view,default=false"`
}

// ParseDownloadQuery parses query parameters for GET /media/download
func ParseDownloadQuery(c *gin.Context) (*DownloadQueryParams, error) {
	var params DownloadQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// ListMediaQueryParams holds query parameters for GET /media
type ListMediaQueryParams struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Type   string `form:"type"`
	Search string `form:"search"`
	// Folder is read separately, its presence selects a folder
	Folder *string `form:"-"`
}

var mediaKinds = map[string]domain.MediaKind{
	string(domain.MediaKindImage):    domain.MediaKindImage,
	string(domain.MediaKindVideo):    domain.MediaKindVideo,
	string(domain.MediaKindAudio):    domain.MediaKindAudio,
	string(domain.MediaKindDocument): domain.MediaKindDocument,
	string(domain.MediaKindOther):    domain.MediaKindOther,
}

// ParseListMediaQuery parses query parameters for GET /media
func ParseListMediaQuery(c *gin.Context) (*ListMediaQueryParams, error) {
	var params ListMediaQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if folder, ok := c.GetQuery("folder"); ok {
		params.Folder = &folder
	}
	return &params, nil
}

// Validate validates the list query parameters
func (p *ListMediaQueryParams) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if p.Limit < 1 || p.Limit > catalog.MAX_PAGE_LIMIT {
		return fmt.Errorf("limit must be between 1 and %d", catalog.MAX_PAGE_LIMIT)
	}
	if p.Type != "" {
		if _, ok := mediaKinds[strings.ToLower(p.Type)]; !ok {
			return fmt.Errorf("type must be one of image, video, audio, document, other")
		}
	}
	return nil
}

// ToListParams converts the query to catalog list params
func (p *ListMediaQueryParams) ToListParams() catalog.ListParams {
	return catalog.ListParams{
		Page:   p.Page,
		Limit:  p.Limit,
		Folder: p.Folder,
		Kind:   mediaKinds[strings.ToLower(p.Type)],
		Search: p.Search,
	}
}

// DeleteMediaQueryParams holds query parameters for DELETE /media/:id
type DeleteMediaQueryParams struct {
	DeleteFromStorage bool `form:"deleteFromStorage,default=false"`
}

// UpdateMediaRequest is the body of PATCH /media/:id
type UpdateMediaRequest struct {
	Title       *string `json:"title"`
	AltText     *string `json:"altText"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// MoveMediaRequest is the body of POST /media/:id/move
type MoveMediaRequest struct {
	Folder string `json:"folder"`
}

// ConvertMediaRequest is the body of POST /media/convert
type ConvertMediaRequest struct {
	Key string `json:"key" binding:"required"`
}

// StorageConfigRequest is the body of PUT /storage/config
type StorageConfigRequest struct {
	Region           string   `json:"region"`
	BucketName       string   `json:"bucketName" binding:"required"`
	AccessKeyID      string   `json:"accessKeyId" binding:"required"`
	SecretAccessKey  string   `json:"secretAccessKey"`
	Endpoint         string   `json:"endpoint"`
	ForcePathStyle   bool     `json:"forcePathStyle"`
	URLPrefix        string   `json:"urlPrefix"`
	MaxFileSize      int64    `json:"maxFileSize"`
	AllowedFileTypes []string `json:"allowedFileTypes"`
	FolderStructure  string   `json:"folderStructure"`
	CDNEnabled       bool     `json:"cdnEnabled"`
	CDNURL           string   `json:"cdnUrl"`
	CORSOrigins      []string `json:"corsOrigins"`
}

// ToDomain converts the request to a storage config
func (r *StorageConfigRequest) ToDomain() domain.StorageConfig {
	return domain.StorageConfig{
		Region:           r.Region,
		BucketName:       r.BucketName,
		AccessKeyID:      r.AccessKeyID,
		SecretAccessKey:  r.SecretAccessKey,
		Endpoint:         r.Endpoint,
		ForcePathStyle:   r.ForcePathStyle,
		URLPrefix:        r.URLPrefix,
		MaxFileSize:      r.MaxFileSize,
		AllowedFileTypes: r.AllowedFileTypes,
		FolderStructure:  r.FolderStructure,
		CDN:              domain.CDNConfig{Enabled: r.CDNEnabled, URL: r.CDNURL},
		CORSOrigins:      r.CORSOrigins,
		IsActive:         true,
	}
}

// parseMediaID parses the :id path parameter
func parseMediaID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid media id %q", c.Param("id"))
	}
	return id, nil
}
