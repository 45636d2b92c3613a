package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chirino/docsync/internal/model"
)

// CachedEntries is one runtime snapshot of the aggregated entry set.
type CachedEntries struct {
	Entries   []model.ContentEntry `json:"entries"`
	ExpiresAt time.Time            `json:"expiresAt"`
}

// EntriesCache stores runtime snapshots keyed by repository namespace.
type EntriesCache interface {
	Available() bool
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key string) (*CachedEntries, error)
	// Set stores the snapshot; the backend may drop it after ttl.
	Set(ctx context.Context, key string, entries CachedEntries, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (EntriesCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
