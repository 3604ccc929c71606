package storageconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/store"
)

const (
	// DEFAULT_TTL bounds both the in-process and the distributed cache
	DEFAULT_TTL = 5 * time.Minute
	// CACHE_KEY is the distributed cache key of the active database config
	CACHE_KEY = "ff-media:storage-config:active"
	// redactedSecret is what the settings API shows in place of the secret
	redactedSecret = "********"
)

// Resolver resolves the active storage config
type Resolver interface {
	// GetActiveConfig returns the active config or domain.ErrNotConfigured
	GetActiveConfig(ctx context.Context) (*domain.StorageConfig, error)
	// Invalidate clears the in-process cache and bypasses the distributed cache until a
	// lookup resolves again. Lookups already in flight do not repopulate the in-process cache.
	Invalidate(ctx context.Context)
	// Save persists cfg as the only active config and invalidates cached lookups
	Save(ctx context.Context, cfg domain.StorageConfig) (*domain.StorageConfig, error)
}

// Config holds resolver configuration
type Config struct {
	// TTL of the in-process and distributed cache entries
	TTL time.Duration
	// LookupEnv reads environment variables, os.LookupEnv when nil
	LookupEnv LookupEnvFunc
}

// cachedLookup is the distributed cache payload. Config is nil when the database has no active row.
type cachedLookup struct {
	Config *domain.StorageConfig `json:"config"`
}

type resolver struct {
	store     store.Store
	cache     adapter.Cache
	local     *ConfigCache
	ttl       time.Duration
	lookupEnv LookupEnvFunc
}

// NewResolver creates a resolver. cache may be adapter.NopCache when no redis is configured.
func NewResolver(cfg Config, st store.Store, cache adapter.Cache, clock adapter.Clock) Resolver {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DEFAULT_TTL
	}
	lookup := cfg.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &resolver{
		store:     st,
		cache:     cache,
		local:     NewConfigCache(clock, ttl),
		ttl:       ttl,
		lookupEnv: lookup,
	}
}

func (r *resolver) GetActiveConfig(ctx context.Context) (*domain.StorageConfig, error) {
	if cfg, ok := r.local.Get(); ok {
		return cfg, nil
	}

	generation, cleared := r.local.Generation()
	cfg, err := r.fromDatabase(ctx, generation, cleared)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load storage config from database, falling back to environment", zap.Error(err))
	}

	if cfg == nil {
		cfg = fromEnvironment(r.lookupEnv)
	}
	if cfg == nil || !cfg.Usable() {
		return nil, domain.ErrNotConfigured
	}

	if !r.local.SetAt(generation, *cfg) {
		logger.DebugCtx(ctx, "Storage config invalidated while resolving, result not cached",
			zap.String("bucket", cfg.BucketName),
		)
		return cfg, nil
	}
	logger.DebugCtx(ctx, "Resolved storage config",
		zap.String("source", string(cfg.Source)),
		zap.String("bucket", cfg.BucketName),
	)
	return cfg, nil
}

// fromDatabase reads the active row through the distributed cache. Right after an
// invalidation the distributed entry is skipped, since its delete may have failed.
func (r *resolver) fromDatabase(ctx context.Context, generation uint64, cleared bool) (*domain.StorageConfig, error) {
	if !cleared {
		if cfg, ok := r.readDistributed(ctx); ok {
			return cfg, nil
		}
	}

	row, err := r.store.GetActiveStorageConfig(ctx)
	if err != nil {
		return nil, err
	}

	var cfg *domain.StorageConfig
	if row != nil {
		cfg, err = toDomain(row)
		if err != nil {
			return nil, err
		}
	}

	if current, _ := r.local.Generation(); current != generation {
		return cfg, nil
	}
	r.writeDistributed(ctx, cfg)
	return cfg, nil
}

func (r *resolver) readDistributed(ctx context.Context) (*domain.StorageConfig, bool) {
	raw, err := r.cache.Get(ctx, CACHE_KEY)
	if err != nil {
		if !errors.Is(err, adapter.ErrCacheMiss) {
			logger.WarnCtx(ctx, "Failed to read storage config cache", zap.Error(err))
		}
		return nil, false
	}

	var lookup cachedLookup
	if err := json.Unmarshal(raw, &lookup); err != nil {
		logger.WarnCtx(ctx, "Discarding malformed storage config cache entry", zap.Error(err))
		return nil, false
	}
	return lookup.Config, true
}

func (r *resolver) writeDistributed(ctx context.Context, cfg *domain.StorageConfig) {
	raw, err := json.Marshal(cachedLookup{Config: cfg})
	if err != nil {
		logger.WarnCtx(ctx, "Failed to encode storage config cache entry", zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, CACHE_KEY, raw, r.ttl); err != nil {
		logger.WarnCtx(ctx, "Failed to write storage config cache", zap.Error(err))
	}
}

func (r *resolver) Invalidate(ctx context.Context) {
	r.local.Clear()
	if err := r.cache.Delete(ctx, CACHE_KEY); err != nil {
		logger.WarnCtx(ctx, "Failed to delete storage config cache", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Storage config cache invalidated")
}

func (r *resolver) Save(ctx context.Context, cfg domain.StorageConfig) (*domain.StorageConfig, error) {
	cfg.BucketName = strings.TrimSpace(cfg.BucketName)
	cfg.AccessKeyID = strings.TrimSpace(cfg.AccessKeyID)

	// The settings API only ever shows a redacted secret, so keep the stored one unless a new one is sent
	if cfg.SecretAccessKey == "" || cfg.SecretAccessKey == redactedSecret {
		current, err := r.GetActiveConfig(ctx)
		if err != nil && !errors.Is(err, domain.ErrNotConfigured) {
			return nil, err
		}
		if current != nil {
			cfg.SecretAccessKey = current.SecretAccessKey
		} else {
			cfg.SecretAccessKey = ""
		}
	}

	if !cfg.Usable() {
		return nil, fmt.Errorf("%w: bucketName, accessKeyId and secretAccessKey are required", domain.ErrInvalidInput)
	}
	if cfg.MaxFileSize < 0 {
		return nil, fmt.Errorf("%w: maxFileSize must not be negative", domain.ErrInvalidInput)
	}
	if cfg.CDN.Enabled && cfg.CDN.URL == "" {
		return nil, fmt.Errorf("%w: cdn.url is required when the CDN is enabled", domain.ErrInvalidInput)
	}
	if cfg.Region == "" {
		cfg.Region = domain.DEFAULT_REGION
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = domain.DEFAULT_MAX_FILE_SIZE
	}
	if cfg.AllowedFileTypes == nil {
		cfg.AllowedFileTypes = append([]string(nil), domain.DefaultAllowedFileTypes...)
	}
	if cfg.FolderStructure == "" {
		cfg.FolderStructure = "flat"
	}

	row, err := toSchema(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage config: %w", err)
	}
	if err := r.store.SaveStorageConfig(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save storage config: %w", err)
	}

	r.Invalidate(ctx)

	saved, err := toDomain(row)
	if err != nil {
		return nil, err
	}
	return saved, nil
}
