package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// CDNConfig describes an optional CDN fronting the bucket
type CDNConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
}

// StorageConfigSource tells where a resolved config came from
type StorageConfigSource string

const (
	StorageConfigSourceDatabase    StorageConfigSource = "database"
	StorageConfigSourceEnvironment StorageConfigSource = "environment"
)

// StorageConfig is the resolved object store configuration
type StorageConfig struct {
	Region          string `json:"region"`
	BucketName      string `json:"bucketName"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	// Endpoint overrides the AWS endpoint for S3-compatible stores
	Endpoint         string              `json:"endpoint,omitempty"`
	ForcePathStyle   bool                `json:"forcePathStyle,omitempty"`
	URLPrefix        string              `json:"urlPrefix,omitempty"`
	IsActive         bool                `json:"isActive"`
	MaxFileSize      int64               `json:"maxFileSize"`
	AllowedFileTypes []string            `json:"allowedFileTypes"`
	FolderStructure  string              `json:"folderStructure,omitempty"`
	CDN              CDNConfig           `json:"cdn"`
	CORSOrigins      []string            `json:"corsOrigins,omitempty"`
	Source           StorageConfigSource `json:"source"`
}

// Usable reports whether the config carries enough to reach a bucket
func (c *StorageConfig) Usable() bool {
	return c != nil && c.BucketName != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// FileURL derives the public URL of key: CDN url, then custom prefix, then the default bucket URL
func (c *StorageConfig) FileURL(key string) string {
	escaped := escapeKey(key)
	switch {
	case c.CDN.Enabled && c.CDN.URL != "":
		return strings.TrimRight(c.CDN.URL, "/") + "/" + escaped
	case c.URLPrefix != "":
		return strings.TrimRight(c.URLPrefix, "/") + "/" + escaped
	case c.Endpoint != "":
		return strings.TrimRight(c.Endpoint, "/") + "/" + c.BucketName + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, escaped)
	}
}

// AllowsContentType reports whether contentType matches one of the allowed glob patterns.
// An empty allow-list accepts everything.
func (c *StorageConfig) AllowsContentType(contentType string) bool {
	if len(c.AllowedFileTypes) == 0 {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, pattern := range c.AllowedFileTypes {
		if ok, err := path.Match(strings.ToLower(strings.TrimSpace(pattern)), ct); err == nil && ok {
			return true
		}
	}
	return false
}

// Redacted returns a copy safe to expose over the API
func (c StorageConfig) Redacted() StorageConfig {
	if c.SecretAccessKey != "" {
		c.SecretAccessKey = "********"
	}
	return c
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
