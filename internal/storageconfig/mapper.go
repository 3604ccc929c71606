package storageconfig

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/store/schema"
)

func toDomain(row *schema.StorageConfig) (*domain.StorageConfig, error) {
	cfg := &domain.StorageConfig{
		Region:          row.Region,
		BucketName:      row.BucketName,
		AccessKeyID:     row.AccessKeyID,
		SecretAccessKey: row.SecretAccessKey,
		ForcePathStyle:  row.ForcePathStyle,
		IsActive:        row.IsActive,
		MaxFileSize:     row.MaxFileSize,
		FolderStructure: row.FolderStructure,
		CDN:             domain.CDNConfig{Enabled: row.CDNEnabled},
		Source:          domain.StorageConfigSourceDatabase,
	}
	if row.Endpoint != nil {
		cfg.Endpoint = *row.Endpoint
	}
	if row.URLPrefix != nil {
		cfg.URLPrefix = *row.URLPrefix
	}
	if row.CDNURL != nil {
		cfg.CDN.URL = *row.CDNURL
	}
	if cfg.Region == "" {
		cfg.Region = domain.DEFAULT_REGION
	}

	if err := unmarshalList(row.AllowedFileTypes, &cfg.AllowedFileTypes); err != nil {
		return nil, fmt.Errorf("failed to decode allowed_file_types: %w", err)
	}
	if err := unmarshalList(row.CORSOrigins, &cfg.CORSOrigins); err != nil {
		return nil, fmt.Errorf("failed to decode cors_origins: %w", err)
	}
	return cfg, nil
}

func toSchema(cfg domain.StorageConfig) (*schema.StorageConfig, error) {
	allowed, err := json.Marshal(nonNil(cfg.AllowedFileTypes))
	if err != nil {
		return nil, err
	}
	origins, err := json.Marshal(nonNil(cfg.CORSOrigins))
	if err != nil {
		return nil, err
	}

	return &schema.StorageConfig{
		Region:           cfg.Region,
		BucketName:       cfg.BucketName,
		AccessKeyID:      cfg.AccessKeyID,
		SecretAccessKey:  cfg.SecretAccessKey,
		Endpoint:         optional(cfg.Endpoint),
		ForcePathStyle:   cfg.ForcePathStyle,
		URLPrefix:        optional(cfg.URLPrefix),
		IsActive:         true,
		MaxFileSize:      cfg.MaxFileSize,
		AllowedFileTypes: datatypes.JSON(allowed),
		FolderStructure:  cfg.FolderStructure,
		CDNEnabled:       cfg.CDN.Enabled,
		CDNURL:           optional(cfg.CDN.URL),
		CORSOrigins:      datatypes.JSON(origins),
	}, nil
}

func unmarshalList(raw datatypes.JSON, out *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
