package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chirino/docsync/internal/config"
	registrycache "github.com/chirino/docsync/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.EntriesCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: DOCSYNC_REDIS_URL is required")
	}
	return LoadFromURL(ctx, cfg.RedisURL)
}

// LoadFromURL creates an EntriesCache from a Redis-compatible URL.
func LoadFromURL(ctx context.Context, redisURL string) (registrycache.EntriesCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	return LoadFromOptions(ctx, opts)
}

// LoadFromOptions creates an EntriesCache from go-redis Options.
// Other plugins (e.g. Infinispan RESP) reuse it with adjusted options.
func LoadFromOptions(ctx context.Context, opts *goredis.Options) (registrycache.EntriesCache, error) {
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	return &redisEntriesCache{client: client}, nil
}

type redisEntriesCache struct {
	client *goredis.Client
}

func entriesKey(key string) string {
	return "docsync-entries:" + key
}

func (c *redisEntriesCache) Available() bool {
	return true
}

func (c *redisEntriesCache) Get(ctx context.Context, key string) (*registrycache.CachedEntries, error) {
	data, err := c.client.Get(ctx, entriesKey(key)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cached registrycache.CachedEntries
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *redisEntriesCache) Set(ctx context.Context, key string, entries registrycache.CachedEntries, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entriesKey(key), data, ttl).Err()
}

func (c *redisEntriesCache) Remove(ctx context.Context, key string) error {
	return c.client.Del(ctx, entriesKey(key)).Err()
}

var _ registrycache.EntriesCache = (*redisEntriesCache)(nil)
