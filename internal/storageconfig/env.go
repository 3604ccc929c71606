package storageconfig

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/feral-file/ff-media-library/internal/domain"
)

// Environment variable names, in lookup order
var (
	envAccessKeyID     = []string{"S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}
	envSecretAccessKey = []string{"S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}
	envBucketName      = []string{"S3_BUCKET_NAME", "AWS_S3_BUCKET_NAME", "NEXT_PUBLIC_S3_BUCKET_NAME"}
	envRegion          = []string{"S3_REGION", "AWS_REGION", "NEXT_PUBLIC_S3_REGION"}
	envURLPrefix       = []string{"S3_URL_PREFIX", "NEXT_PUBLIC_S3_URL_PREFIX"}
	envEndpoint        = []string{"S3_ENDPOINT", "AWS_ENDPOINT_URL_S3"}
	envForcePathStyle  = []string{"S3_FORCE_PATH_STYLE"}
	envCDNURL          = []string{"CDN_URL", "NEXT_PUBLIC_CDN_URL"}
)

// bucketInPrefix matches virtual-hosted style bucket URLs, https://{bucket}.s3.{region}.amazonaws.com
var bucketInPrefix = regexp.MustCompile(`^https?://([^./]+)\.s3[.-]`)

// LookupEnvFunc reads one environment variable
type LookupEnvFunc func(key string) (string, bool)

func firstEnv(lookup LookupEnvFunc, names []string) string {
	for _, name := range names {
		if v, ok := lookup(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// BucketFromURLPrefix extracts the bucket name of a virtual-hosted style S3 URL
func BucketFromURLPrefix(prefix string) string {
	m := bucketInPrefix.FindStringSubmatch(prefix)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// fromEnvironment synthesizes a config from well-known variables, or returns nil if it would not be usable
func fromEnvironment(lookup LookupEnvFunc) *domain.StorageConfig {
	cfg := domain.StorageConfig{
		AccessKeyID:      firstEnv(lookup, envAccessKeyID),
		SecretAccessKey:  firstEnv(lookup, envSecretAccessKey),
		BucketName:       firstEnv(lookup, envBucketName),
		Region:           firstEnv(lookup, envRegion),
		URLPrefix:        firstEnv(lookup, envURLPrefix),
		Endpoint:         firstEnv(lookup, envEndpoint),
		IsActive:         true,
		MaxFileSize:      domain.DEFAULT_MAX_FILE_SIZE,
		AllowedFileTypes: slices.Clone(domain.DefaultAllowedFileTypes),
		FolderStructure:  "flat",
		Source:           domain.StorageConfigSourceEnvironment,
	}

	if cfg.BucketName == "" {
		cfg.BucketName = BucketFromURLPrefix(cfg.URLPrefix)
	}
	if cfg.Region == "" {
		cfg.Region = domain.DEFAULT_REGION
	}
	if v := firstEnv(lookup, envForcePathStyle); v != "" {
		cfg.ForcePathStyle, _ = strconv.ParseBool(v)
	}
	if v := firstEnv(lookup, envCDNURL); v != "" {
		cfg.CDN = domain.CDNConfig{Enabled: true, URL: v}
	}

	if !cfg.Usable() {
		return nil
	}
	return &cfg
}
