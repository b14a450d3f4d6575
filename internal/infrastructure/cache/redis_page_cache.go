package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPageCache is a PageCache on Redis for multi-instance deployments.
// Invalidation bumps a per-entity generation counter instead of scanning
// keys; superseded generations age out through their TTLs.
type RedisPageCache struct {
	client *redis.Client
}

// RedisConfig holds the connection settings for the Redis page cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisPageCache connects to Redis and verifies the connection.
func NewRedisPageCache(cfg RedisConfig) (*RedisPageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisPageCache{client: client}, nil
}

// Get implements PageCache.
func (c *RedisPageCache) Get(ctx context.Context, entity, key string) ([]byte, bool, error) {
	gen, err := c.generation(ctx, entity)
	if err != nil {
		return nil, false, err
	}
	payload, err := c.client.Get(ctx, pageKey(entity, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Set implements PageCache.
func (c *RedisPageCache) Set(ctx context.Context, entity, key string, payload []byte, ttl time.Duration) error {
	gen, err := c.generation(ctx, entity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(entity, gen, key), payload, ttl).Err()
}

// Invalidate implements PageCache.
func (c *RedisPageCache) Invalidate(ctx context.Context, entity string) error {
	return c.client.Incr(ctx, generationKey(entity)).Err()
}

// Close implements PageCache.
func (c *RedisPageCache) Close() error {
	return c.client.Close()
}

func (c *RedisPageCache) generation(ctx context.Context, entity string) (int64, error) {
	val, err := c.client.Get(ctx, generationKey(entity)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt generation counter for %s: %w", entity, err)
	}
	return gen, nil
}

func pageKey(entity string, gen int64, key string) string {
	return fmt.Sprintf("page:%s:%d:%s", entity, gen, key)
}

func generationKey(entity string) string {
	return "page-gen:" + entity
}

var _ PageCache = (*RedisPageCache)(nil)
