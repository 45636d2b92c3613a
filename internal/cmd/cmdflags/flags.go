// Package cmdflags holds the flag groups shared by every docsync sub-command.
package cmdflags

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	registryasset "github.com/chirino/docsync/internal/registry/asset"
	registrycache "github.com/chirino/docsync/internal/registry/cache"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"github.com/urfave/cli/v3"
)

// Remote returns flags for the knowledge base connection.
func Remote(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "remote-url",
			Category:    "Remote:",
			Sources:     cli.EnvVars("DOCSYNC_REMOTE_URL", "YUQUE_BASE_URL"),
			Destination: &cfg.RemoteBaseURL,
			Value:       cfg.RemoteBaseURL,
			Usage:       "Knowledge base API base URL",
		},
		&cli.StringFlag{
			Name:        "token",
			Category:    "Remote:",
			Sources:     cli.EnvVars("DOCSYNC_TOKEN", "YUQUE_TOKEN"),
			Destination: &cfg.Token,
			Usage:       "API token sent in the X-Auth-Token header",
		},
		&cli.StringFlag{
			Name:        "login",
			Category:    "Remote:",
			Sources:     cli.EnvVars("DOCSYNC_LOGIN", "YUQUE_LOGIN"),
			Destination: &cfg.Login,
			Usage:       "Repository owner login",
		},
		&cli.StringFlag{
			Name:        "repo",
			Category:    "Remote:",
			Sources:     cli.EnvVars("DOCSYNC_REPO", "YUQUE_REPO"),
			Destination: &cfg.Repo,
			Usage:       "Repository slug",
		},
		&cli.DurationFlag{
			Name:        "remote-timeout",
			Category:    "Remote:",
			Sources:     cli.EnvVars("DOCSYNC_REMOTE_TIMEOUT"),
			Destination: &cfg.RemoteTimeout,
			Value:       cfg.RemoteTimeout,
			Usage:       "Per-request timeout for remote API calls",
		},
		&cli.IntFlag{
			Name:        "sync-concurrency",
			Category:    "Remote:",
			Sources:     cli.EnvVars("DOCSYNC_SYNC_CONCURRENCY"),
			Destination: &cfg.SyncConcurrency,
			Value:       cfg.SyncConcurrency,
			Usage:       "Maximum concurrent document detail fetches",
		},
	}
}

// Store returns flags for the persistent entry store.
func Store(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-kind",
			Category:    "Database:",
			Sources:     cli.EnvVars("DOCSYNC_DB_KIND"),
			Destination: &cfg.DatastoreType,
			Value:       cfg.DatastoreType,
			Usage:       "Entry store (" + strings.Join(registrystore.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "db-url",
			Category:    "Database:",
			Sources:     cli.EnvVars("DOCSYNC_DB_URL"),
			Destination: &cfg.DBURL,
			Value:       cfg.DBURL,
			Usage:       "Database connection URL or SQLite DSN",
		},
		&cli.BoolFlag{
			Name:        "db-migrate-at-start",
			Category:    "Database:",
			Sources:     cli.EnvVars("DOCSYNC_DB_MIGRATE_AT_START"),
			Destination: &cfg.DatastoreMigrateAtStart,
			Value:       cfg.DatastoreMigrateAtStart,
			Usage:       "Create or update the schema before use",
		},
		&cli.IntFlag{
			Name:        "db-max-open-conns",
			Category:    "Database:",
			Sources:     cli.EnvVars("DOCSYNC_DB_MAX_OPEN_CONNS"),
			Destination: &cfg.DBMaxOpenConns,
			Value:       cfg.DBMaxOpenConns,
			Usage:       "Maximum number of open database connections",
		},
		&cli.IntFlag{
			Name:        "db-max-idle-conns",
			Category:    "Database:",
			Sources:     cli.EnvVars("DOCSYNC_DB_MAX_IDLE_CONNS"),
			Destination: &cfg.DBMaxIdleConns,
			Value:       cfg.DBMaxIdleConns,
			Usage:       "Maximum number of idle database connections",
		},
		&cli.StringFlag{
			Name:        "mongo-database",
			Category:    "Database:",
			Sources:     cli.EnvVars("DOCSYNC_MONGO_DATABASE"),
			Destination: &cfg.MongoDatabase,
			Value:       cfg.MongoDatabase,
			Usage:       "Database name when db-kind is mongo",
		},
	}
}

// Cache returns flags for the runtime entry cache.
func Cache(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cache-kind",
			Category:    "Cache:",
			Sources:     cli.EnvVars("DOCSYNC_CACHE_KIND"),
			Destination: &cfg.CacheType,
			Value:       cfg.CacheType,
			Usage:       "Runtime cache (" + strings.Join(registrycache.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "cache-ttl-ms",
			Category:    "Cache:",
			Sources:     cli.EnvVars("DOCSYNC_CACHE_TTL_MS", "YUQUE_CACHE_TTL_MS"),
			Destination: &cfg.CacheTTLRaw,
			Usage:       "Runtime cache TTL in milliseconds; invalid values use the 5 minute default",
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Cache:",
			Sources:     cli.EnvVars("DOCSYNC_REDIS_URL"),
			Destination: &cfg.RedisURL,
			Usage:       "Redis URL when cache-kind is redis",
		},
		&cli.StringFlag{
			Name:        "infinispan-host",
			Category:    "Cache:",
			Sources:     cli.EnvVars("DOCSYNC_INFINISPAN_HOST"),
			Destination: &cfg.InfinispanHost,
			Usage:       "Infinispan RESP host:port when cache-kind is infinispan",
		},
		&cli.StringFlag{
			Name:        "infinispan-username",
			Category:    "Cache:",
			Sources:     cli.EnvVars("DOCSYNC_INFINISPAN_USERNAME"),
			Destination: &cfg.InfinispanUsername,
			Usage:       "Infinispan username",
		},
		&cli.StringFlag{
			Name:        "infinispan-password",
			Category:    "Cache:",
			Sources:     cli.EnvVars("DOCSYNC_INFINISPAN_PASSWORD"),
			Destination: &cfg.InfinispanPassword,
			Usage:       "Infinispan password",
		},
		&cli.Int64Flag{
			Name:        "memory-cache-max-entries",
			Category:    "Cache:",
			Sources:     cli.EnvVars("DOCSYNC_MEMORY_CACHE_MAX_ENTRIES"),
			Destination: &cfg.MemoryCacheMaxCostEntries,
			Value:       cfg.MemoryCacheMaxCostEntries,
			Usage:       "Entry budget of the in-process cache",
		},
	}
}

// Assets returns flags for image localization.
func Assets(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "asset-kind",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_ASSET_KIND"),
			Destination: &cfg.AssetType,
			Value:       cfg.AssetType,
			Usage:       "Asset store (" + strings.Join(append(registryasset.Names(), "none"), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "asset-dir",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_ASSET_DIR"),
			Destination: &cfg.AssetDir,
			Value:       cfg.AssetDir,
			Usage:       "Directory for localized images when asset-kind is local",
		},
		&cli.StringFlag{
			Name:        "asset-public-prefix",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_ASSET_PUBLIC_PREFIX"),
			Destination: &cfg.AssetPublicPrefix,
			Value:       cfg.AssetPublicPrefix,
			Usage:       "Path prefix written into rewritten image references",
		},
		&cli.StringFlag{
			Name:        "asset-hosts",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_ASSET_HOSTS"),
			Destination: &cfg.AssetHosts,
			Value:       cfg.AssetHosts,
			Usage:       "Comma-separated host substrings whose images are localized",
		},
		&cli.DurationFlag{
			Name:        "asset-timeout",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_ASSET_TIMEOUT"),
			Destination: &cfg.AssetTimeout,
			Value:       cfg.AssetTimeout,
			Usage:       "Download timeout per image",
		},
		&cli.StringFlag{
			Name:        "s3-bucket",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_S3_BUCKET"),
			Destination: &cfg.S3Bucket,
			Usage:       "Bucket when asset-kind is s3",
		},
		&cli.StringFlag{
			Name:        "s3-prefix",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_S3_PREFIX"),
			Destination: &cfg.S3Prefix,
			Usage:       "Key prefix for stored images",
		},
		&cli.BoolFlag{
			Name:        "s3-use-path-style",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_S3_USE_PATH_STYLE"),
			Destination: &cfg.S3UsePathStyle,
			Usage:       "Use path-style S3 addressing (MinIO, LocalStack)",
		},
		&cli.StringFlag{
			Name:        "s3-public-base-url",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_S3_PUBLIC_BASE_URL"),
			Destination: &cfg.S3PublicBaseURL,
			Usage:       "Public URL prefix for stored images; defaults to the bucket endpoint",
		},
		&cli.StringFlag{
			Name:        "temp-dir",
			Category:    "Assets:",
			Sources:     cli.EnvVars("DOCSYNC_TEMP_DIR"),
			Destination: &cfg.TempDir,
			Usage:       "Directory for temporary files; defaults to OS temp directory",
		},
	}
}

// Logging returns the log level flag.
func Logging(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Category:    "Monitoring:",
			Sources:     cli.EnvVars("DOCSYNC_LOG_LEVEL"),
			Destination: &cfg.LogLevel,
			Value:       cfg.LogLevel,
			Usage:       "debug|info|warn|error",
		},
	}
}

// Join concatenates flag groups.
func Join(groups ...[]cli.Flag) []cli.Flag {
	var all []cli.Flag
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// Prepare applies the log level and attaches cfg to ctx.
func Prepare(ctx context.Context, cfg *config.Config) (context.Context, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return ctx, fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetLevel(level)
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 30 * time.Second
	}
	return config.WithContext(ctx, cfg), nil
}
