package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// VideoStatusTTL bounds how long a terminal video state is served from the mirror.
const VideoStatusTTL = 30 * time.Minute

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	SetVideoStatus(ctx context.Context, provider, jobID string, state models.VideoState) error
	GetVideoStatus(ctx context.Context, provider, jobID string) (models.VideoState, bool, error)
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// SetVideoStatus mirrors a video sub-state so status lookups for finished
// jobs do not hit the vendor again.
func (c *RedisCache) SetVideoStatus(ctx context.Context, provider, jobID string, state models.VideoState) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding video state: %w", err)
	}
	return c.client.Set(ctx, VideoStatusKey(provider, jobID), buf, VideoStatusTTL).Err()
}

func (c *RedisCache) GetVideoStatus(ctx context.Context, provider, jobID string) (models.VideoState, bool, error) {
	raw, ok, err := c.Get(ctx, VideoStatusKey(provider, jobID))
	if err != nil || !ok {
		return models.VideoState{}, false, err
	}
	var state models.VideoState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.VideoState{}, false, fmt.Errorf("decoding video state: %w", err)
	}
	return state, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
