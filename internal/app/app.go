// Package app assembles the configured stores, caches and ingestion modes
// shared by the serve, sync and tree commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/assets"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/ingest"
	"github.com/chirino/docsync/internal/normalize"
	storemetrics "github.com/chirino/docsync/internal/plugin/store/metrics"
	registryasset "github.com/chirino/docsync/internal/registry/asset"
	registrycache "github.com/chirino/docsync/internal/registry/cache"
	registrymigrate "github.com/chirino/docsync/internal/registry/migrate"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"github.com/chirino/docsync/internal/remote"

	// Import all plugins to trigger init() registration
	_ "github.com/chirino/docsync/internal/plugin/asset/local"
	_ "github.com/chirino/docsync/internal/plugin/asset/s3"
	_ "github.com/chirino/docsync/internal/plugin/cache/infinispan"
	_ "github.com/chirino/docsync/internal/plugin/cache/memory"
	_ "github.com/chirino/docsync/internal/plugin/cache/noop"
	_ "github.com/chirino/docsync/internal/plugin/cache/redis"
	_ "github.com/chirino/docsync/internal/plugin/store/mongo"
	_ "github.com/chirino/docsync/internal/plugin/store/postgres"
	_ "github.com/chirino/docsync/internal/plugin/store/sqlite"
)

// Components are the wired subsystems for one configuration.
type Components struct {
	Config   *config.Config
	Store    registrystore.EntryStore
	Assets   registryasset.AssetStore
	Cache    registrycache.EntriesCache
	Pipeline *ingest.Pipeline
	Runtime  *ingest.Runtime
	Build    *ingest.BuildSync
}

// Options selects which subsystems Assemble creates.
type Options struct {
	// SkipCache leaves Runtime unset; the build-only commands do not need it.
	SkipCache bool
	// SkipAssets disables image localization.
	SkipAssets bool
}

// Assemble runs migrations and loads every subsystem named by cfg.
// ctx must carry cfg (config.WithContext).
func Assemble(ctx context.Context, cfg *config.Config, opts Options) (*Components, error) {
	if err := registrymigrate.RunAll(ctx); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	c := &Components{Config: cfg, Store: storemetrics.Wrap(store)}

	var normalizer ingest.BodyNormalizer = normalize.New(nil)
	if !opts.SkipAssets {
		if assetStore, err := loadAssets(ctx, cfg); err != nil {
			log.Warn("Image localization disabled", "assets", cfg.AssetType, "err", err)
		} else {
			c.Assets = assetStore
			normalizer = normalize.New(assets.NewLocalizer(assetStore, assets.Options{
				Hosts:   cfg.AssetHostList(),
				Timeout: cfg.AssetTimeout,
			}))
		}
	}

	var source remote.ContentSource
	if cfg.HasCredentials() {
		source = remote.New(remote.Options{
			BaseURL: cfg.RemoteBaseURL,
			Token:   cfg.Token,
			Login:   cfg.Login,
			Repo:    cfg.Repo,
			Timeout: cfg.RemoteTimeout,
		})
	} else {
		log.Warn("Remote credentials missing; ingestion will produce no entries")
	}
	c.Pipeline = ingest.NewPipeline(source, normalizer, cfg.SyncConcurrency)
	c.Build = ingest.NewBuildSync(c.Pipeline, c.Store)

	if !opts.SkipCache {
		c.Cache = loadCache(ctx, cfg)
		c.Runtime = ingest.NewRuntime(c.Pipeline, c.Cache, cfg.CacheTTL(), ingest.WithCacheKey(cfg.Namespace()))
	}
	return c, nil
}

// Close releases the store.
func (c *Components) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

func loadAssets(ctx context.Context, cfg *config.Config) (registryasset.AssetStore, error) {
	if cfg.AssetType == "" || cfg.AssetType == "none" {
		return nil, errors.New("no asset store configured")
	}
	loader, err := registryasset.Select(cfg.AssetType)
	if err != nil {
		return nil, err
	}
	return loader(ctx)
}

// loadCache falls back to no caching when the configured backend is unusable,
// so runtime requests still work, just without reuse.
func loadCache(ctx context.Context, cfg *config.Config) registrycache.EntriesCache {
	if loader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if entriesCache, err := loader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else {
		return entriesCache
	}
	loader, _ := registrycache.Select("none")
	entriesCache, _ := loader(ctx)
	return entriesCache
}
