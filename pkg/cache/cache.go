package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invalidator is the write-side of the tag cache. Mutations call it
// synchronously after a successful commit with the tags enumerated for the
// operation; readers under those tags refetch afterwards.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// TagCache memoizes JSON payloads under (tag, key) pairs in Redis. Each tag
// carries a version counter; invalidating a tag bumps the counter, which
// orphans every entry written under the old version. Orphans expire via TTL.
type TagCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTagCache builds a Redis-backed tag cache.
func NewTagCache(addr, password, prefix string, ttl time.Duration) *TagCache {
	if prefix == "" {
		prefix = "closet:cache"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TagCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		ttl:    ttl,
	}
}

// GetJSON looks up the payload stored under (tag, key) at the tag's current
// version. Returns false on a miss.
func (c *TagCache) GetJSON(ctx context.Context, tag, key string, dest any) (bool, error) {
	ver, err := c.version(ctx, tag)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, c.entryKey(tag, ver, key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

// SetJSON stores the payload under (tag, key) at the tag's current version.
func (c *TagCache) SetJSON(ctx context.Context, tag, key string, value any) error {
	ver, err := c.version(ctx, tag)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.client.Set(ctx, c.entryKey(tag, ver, key), data, c.ttl).Err()
}

// Invalidate bumps the version counter of each tag, orphaning all entries
// cached under it.
func (c *TagCache) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, tag := range tags {
		pipe.Incr(ctx, c.versionKey(tag))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the Redis client.
func (c *TagCache) Close() error {
	return c.client.Close()
}

// Ping verifies connectivity.
func (c *TagCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *TagCache) version(ctx context.Context, tag string) (int64, error) {
	ver, err := c.client.Get(ctx, c.versionKey(tag)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *TagCache) versionKey(tag string) string {
	return fmt.Sprintf("%s:tag:%s:ver", c.prefix, tag)
}

func (c *TagCache) entryKey(tag string, ver int64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", c.prefix, tag, ver, key)
}
