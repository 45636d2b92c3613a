// Package memory is the default, in-process runtime cache backed by ristretto.
package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chirino/docsync/internal/config"
	registrycache "github.com/chirino/docsync/internal/registry/cache"
	"github.com/dgraph-io/ristretto/v2"
)

// ErrSnapshotTooLarge is returned when a snapshot alone exceeds the cache capacity.
var ErrSnapshotTooLarge = errors.New("memory cache: snapshot exceeds max cost")

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "memory",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.EntriesCache, error) {
	maxCost := int64(100_000)
	if cfg := config.FromContext(ctx); cfg != nil && cfg.MemoryCacheMaxCostEntries > 0 {
		maxCost = cfg.MemoryCacheMaxCostEntries
	}
	return New(maxCost)
}

// New creates a cache that holds at most maxCost entries across all snapshots.
func New(maxCost int64) (registrycache.EntriesCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, registrycache.CachedEntries]{
		NumCounters: 1_000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &memoryEntriesCache{cache: c, maxCost: maxCost}, nil
}

type memoryEntriesCache struct {
	cache   *ristretto.Cache[string, registrycache.CachedEntries]
	maxCost int64
}

func (c *memoryEntriesCache) Available() bool { return true }

func (c *memoryEntriesCache) Get(_ context.Context, key string) (*registrycache.CachedEntries, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (c *memoryEntriesCache) Set(_ context.Context, key string, entries registrycache.CachedEntries, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	cost := int64(len(entries.Entries))
	if cost == 0 {
		cost = 1
	}
	if cost > c.maxCost {
		return fmt.Errorf("%w: %d entries, max %d", ErrSnapshotTooLarge, cost, c.maxCost)
	}
	if !c.cache.SetWithTTL(key, entries, cost, ttl) {
		return fmt.Errorf("memory cache: snapshot %q was dropped", key)
	}
	c.cache.Wait()
	return nil
}

func (c *memoryEntriesCache) Remove(_ context.Context, key string) error {
	c.cache.Del(key)
	return nil
}

var _ registrycache.EntriesCache = (*memoryEntriesCache)(nil)
