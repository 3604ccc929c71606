package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the distributed cache operations to enable mocking
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=Cache=MockCache
type Cache interface {
	// Get returns the raw value stored under key or ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the keys
	Delete(ctx context.Context, keys ...string) error

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the connection
	Close() error
}

// RealRedisCache implements Cache on top of go-redis
type RealRedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis backed cache
func NewRedisCache(addr, password string, db int) Cache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewRedisCacheFromClient wraps an existing go-redis client
func NewRedisCacheFromClient(client *redis.Client) Cache {
	return &RealRedisCache{client: client}
}

func (r *RealRedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return b, nil
}

func (r *RealRedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RealRedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RealRedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RealRedisCache) Close() error {
	return r.client.Close()
}

// NopCache is a Cache that stores nothing, used when no redis address is configured
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopCache) Delete(context.Context, ...string) error { return nil }
func (NopCache) Ping(context.Context) error { return nil }
func (NopCache) Close() error { return nil }
