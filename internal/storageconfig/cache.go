package storageconfig

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
)

type cacheEntry struct {
	cfg        *domain.StorageConfig
	cachedAt   time.Time
	generation uint64
	// cleared marks an entry written by Clear that no resolved config has replaced yet
	cleared bool
}

// ConfigCache holds one resolved config for a bounded time.
// Readers never block: Get is a pointer load and a timestamp comparison.
// Every Clear starts a new generation, and SetAt drops configs resolved under an older one.
type ConfigCache struct {
	clock adapter.Clock
	ttl   time.Duration
	entry atomic.Pointer[cacheEntry]
}

// NewConfigCache creates an empty cache whose entries expire after ttl
func NewConfigCache(clock adapter.Clock, ttl time.Duration) *ConfigCache {
	c := &ConfigCache{clock: clock, ttl: ttl}
	c.entry.Store(&cacheEntry{generation: 1})
	return c
}

// Get returns a copy of the cached config if it is younger than the ttl
func (c *ConfigCache) Get() (*domain.StorageConfig, bool) {
	e := c.entry.Load()
	if e.cfg == nil {
		return nil, false
	}
	if c.clock.Since(e.cachedAt) >= c.ttl {
		return nil, false
	}
	cfg := clone(*e.cfg)
	return &cfg, true
}

// Generation returns the current generation, and whether it was started by a Clear
// that no config has been stored under yet
func (c *ConfigCache) Generation() (generation uint64, cleared bool) {
	e := c.entry.Load()
	return e.generation, e.cleared
}

// Set stores cfg stamped with the current time under the current generation
func (c *ConfigCache) Set(cfg domain.StorageConfig) {
	now := c.clock.Now()
	for {
		cur := c.entry.Load()
		if c.store(cur, cfg, now) {
			return
		}
	}
}

// SetAt stores cfg only while generation is current, reporting whether it did
func (c *ConfigCache) SetAt(generation uint64, cfg domain.StorageConfig) bool {
	now := c.clock.Now()
	for {
		cur := c.entry.Load()
		if cur.generation != generation {
			return false
		}
		if c.store(cur, cfg, now) {
			return true
		}
	}
}

func (c *ConfigCache) store(cur *cacheEntry, cfg domain.StorageConfig, now time.Time) bool {
	cloned := clone(cfg)
	return c.entry.CompareAndSwap(cur, &cacheEntry{cfg: &cloned, cachedAt: now, generation: cur.generation})
}

// Clear drops the cached config and starts a new generation, which it returns
func (c *ConfigCache) Clear() uint64 {
	for {
		cur := c.entry.Load()
		next := &cacheEntry{generation: cur.generation + 1, cleared: true}
		if c.entry.CompareAndSwap(cur, next) {
			return next.generation
		}
	}
}

func clone(cfg domain.StorageConfig) domain.StorageConfig {
	cfg.AllowedFileTypes = slices.Clone(cfg.AllowedFileTypes)
	cfg.CORSOrigins = slices.Clone(cfg.CORSOrigins)
	return cfg
}
