package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/model"
	registrycache "github.com/chirino/docsync/internal/registry/cache"
	"github.com/chirino/docsync/internal/security"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds one runtime refresh.
const DefaultRefreshTimeout = 2 * time.Minute

// Runtime serves the aggregated entry set from a TTL cache, refreshing it
// synchronously from the remote once it expires.
type Runtime struct {
	pipeline *Pipeline
	cache    registrycache.EntriesCache
	ttl      time.Duration
	key      string
	now      func() time.Time
	timeout  time.Duration
	group    singleflight.Group
}

// RuntimeOption customizes a Runtime.
type RuntimeOption func(*Runtime)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RuntimeOption {
	return func(r *Runtime) { r.now = now }
}

// WithRefreshTimeout replaces DefaultRefreshTimeout.
func WithRefreshTimeout(d time.Duration) RuntimeOption {
	return func(r *Runtime) { r.timeout = d }
}

// WithCacheKey sets the cache key, normally the repository namespace.
func WithCacheKey(key string) RuntimeOption {
	return func(r *Runtime) { r.key = key }
}

// NewRuntime returns a Runtime caching snapshots for ttl.
func NewRuntime(pipeline *Pipeline, cache registrycache.EntriesCache, ttl time.Duration, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		pipeline: pipeline,
		cache:    cache,
		ttl:      ttl,
		key:      "default",
		now:      time.Now,
		timeout:  DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Entries returns the cached set while it is fresh, otherwise refreshes it.
// Concurrent refreshes share one ingestion, which is not tied to any single
// caller's context; a caller whose ctx ends stops waiting for it. Without
// credentials it returns an empty set.
func (r *Runtime) Entries(ctx context.Context) ([]model.ContentEntry, error) {
	if !r.pipeline.Configured() {
		return []model.ContentEntry{}, nil
	}
	if entries, ok := r.cached(ctx); ok {
		return entries, nil
	}
	flight := r.group.DoChan(r.key, func() (interface{}, error) {
		rctx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, r.timeout)
			defer cancel()
		}
		// Another caller may have refreshed while we waited.
		if entries, ok := r.cached(rctx); ok {
			return entries, nil
		}
		return r.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.ContentEntry), nil
	}
}

// SafeEntries is the error boundary used by request handlers. Failures are
// logged and returned so the caller can answer with a retryable error.
func (r *Runtime) SafeEntries(ctx context.Context) ([]model.ContentEntry, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		log.Error("Runtime ingestion failed", "err", err, "retryable", Retryable(err))
		return nil, err
	}
	return entries, nil
}

// Invalidate drops the cached snapshot.
func (r *Runtime) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Remove(ctx, r.key)
}

func (r *Runtime) cached(ctx context.Context) ([]model.ContentEntry, bool) {
	if r.cache == nil {
		return nil, false
	}
	snapshot, err := r.cache.Get(ctx, r.key)
	if err != nil {
		log.Warn("Runtime cache read failed", "err", err)
		security.RecordCacheLookup(false)
		return nil, false
	}
	if snapshot == nil || !r.now().Before(snapshot.ExpiresAt) {
		security.RecordCacheLookup(false)
		return nil, false
	}
	security.RecordCacheLookup(true)
	return snapshot.Entries, true
}

func (r *Runtime) refresh(ctx context.Context) ([]model.ContentEntry, error) {
	start := time.Now()
	entries, err := r.pipeline.Collect(ctx)
	if errors.Is(err, config.ErrMissingCredentials) {
		return []model.ContentEntry{}, nil
	}
	security.RecordSyncRun("runtime", start, len(entries), err)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.ContentEntry{}
	}
	if r.cache != nil && r.ttl > 0 {
		snapshot := registrycache.CachedEntries{Entries: entries, ExpiresAt: r.now().Add(r.ttl)}
		if err := r.cache.Set(ctx, r.key, snapshot, r.ttl); err != nil {
			log.Warn("Runtime cache write failed", "err", err)
		}
	}
	return entries, nil
}
