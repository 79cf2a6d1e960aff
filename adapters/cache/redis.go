package cache

import (
	"context"
	"time"

	"shoptrends/internal/errors"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "shoptrends:output:"

// RedisCache shares rendered outputs between processes
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects using a redis:// URL
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.ConfigInvalid("invalid REDIS_URL: " + err.Error())
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// NewRedisCacheFromOptions wraps explicit client options
func NewRedisCacheFromOptions(opts *redis.Options) *RedisCache {
	return &RedisCache{client: redis.NewClient(opts)}
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.ExternalServiceError("redis", err)
	}
	return nil
}

// Get returns the cached value; a missing key is a miss, not an error
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.ExternalServiceError("redis", err)
	}
	return val, true, nil
}

// Set stores value with ttl; ttl <= 0 keeps the key until evicted
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return errors.ExternalServiceError("redis", err)
	}
	return nil
}

// Close closes the client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
