package store

import (
	"context"
	"fmt"

	"github.com/chirino/docsync/internal/model"
)

// EntryStore is the persistent keyed store written by build syncs.
type EntryStore interface {
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// Upsert inserts or replaces entries by id.
	Upsert(ctx context.Context, entries []model.StoredEntry) error
	// Get returns one entry or a *NotFoundError.
	Get(ctx context.Context, id string) (*model.StoredEntry, error)
	// List returns every entry ordered by sort order, then id.
	List(ctx context.Context) ([]model.StoredEntry, error)
	// Digests returns id → digest for every entry.
	Digests(ctx context.Context) (map[string]string, error)
	Close() error
}

// Loader creates an EntryStore from config.
type Loader func(ctx context.Context) (EntryStore, error)

// Plugin represents an entry store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds an entry store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered entry store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named entry store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
