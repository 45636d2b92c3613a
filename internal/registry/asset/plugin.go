package asset

import (
	"context"
	"fmt"
	"io"
)

// AssetStore persists localized images under content-addressed names.
type AssetStore interface {
	// Exists reports whether name is already stored.
	Exists(ctx context.Context, name string) (bool, error)
	// Put stores the data under name, replacing any previous object atomically.
	Put(ctx context.Context, name string, data io.Reader, contentType string) error
	// PublicPath is the path or URL a rendered document should reference.
	PublicPath(name string) string
}

// LocalDirectory is implemented by stores backed by a directory that the
// HTTP server can serve statically.
type LocalDirectory interface {
	Dir() string
}

// Loader creates an AssetStore from config.
type Loader func(ctx context.Context) (AssetStore, error)

// Plugin represents an asset store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds an asset store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered asset store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named asset store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown asset store %q; valid: %v", name, Names())
}
