// internal/cache/narration_cache.go
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NarrationCache maps a narration content hash to the object key of the
// already rendered audio, so unchanged story/voice pairs skip the vendor.
type NarrationCache interface {
	Get(ctx context.Context, hash string) (string, error)
	Set(ctx context.Context, hash, objectKey string) error
}

const keyPrefix = "narration:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns "" (no error) on a miss.
func (c *RedisCache) Get(ctx context.Context, hash string) (string, error) {
	val, err := c.client.Get(ctx, keyPrefix+hash).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, hash, objectKey string) error {
	return c.client.Set(ctx, keyPrefix+hash, objectKey, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache is used when REDIS_ADDR is unset; every lookup is a miss.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, hash string) (string, error) { return "", nil }
func (NoopCache) Set(ctx context.Context, hash, objectKey string) error { return nil }

var _ NarrationCache = (*RedisCache)(nil)
var _ NarrationCache = NoopCache{}
