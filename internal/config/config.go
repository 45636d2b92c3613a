package config

import (
	"context"
	"errors"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ListenerConfig holds the network/TLS settings for a single listener (main or management).
type ListenerConfig struct {
	Port              int
	EnablePlainText   bool
	EnableTLS         bool
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// ErrMissingCredentials is returned when the remote token, login or repo is unset.
// Callers treat it as "nothing to ingest" rather than a failure.
var ErrMissingCredentials = errors.New("remote credentials are not configured")

// DefaultCacheTTL is used when no TTL override is given or the override is invalid.
const DefaultCacheTTL = 5 * time.Minute

// Config holds all configuration for docsync.
type Config struct {
	// Remote knowledge base
	RemoteBaseURL string
	Token         string
	Login         string
	Repo          string
	RemoteTimeout time.Duration

	// Sync
	SyncConcurrency int
	// SyncInterval enables periodic build syncs from the server. Zero disables.
	SyncInterval time.Duration

	// Runtime cache
	CacheType string // "memory", "redis", "infinispan", or "none"
	// CacheTTLRaw is the raw millisecond override, parsed with ParseCacheTTL.
	CacheTTLRaw string
	RedisURL    string

	InfinispanHost            string
	InfinispanUsername        string
	InfinispanPassword        string
	InfinispanStartupTimeout  time.Duration
	MemoryCacheMaxCostEntries int64

	// Entry store
	DatastoreType           string // "sqlite", "postgres" or "mongo"
	DBURL                   string
	DatastoreMigrateAtStart bool
	DBMaxOpenConns          int
	DBMaxIdleConns          int
	MongoDatabase           string

	// Assets
	AssetType         string // "local" or "s3"
	AssetDir          string
	AssetPublicPrefix string
	AssetHosts        string // comma-separated host substrings
	AssetTimeout      time.Duration

	S3Bucket        string
	S3Prefix        string
	S3UsePathStyle  bool
	S3PublicBaseURL string

	// Server
	Listener           ListenerConfig
	ManagementListener ListenerConfig
	// ManagementListenerEnabled is true when --management-port was explicitly provided.
	ManagementListenerEnabled bool
	ManagementAccessLog       bool
	CORSEnabled               bool
	CORSOrigins               string
	DrainTimeout              int

	// Monitoring
	MetricsLabels string
	LogLevel      string

	// Temporary file directory. Empty uses platform default temp directory.
	TempDir string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RemoteBaseURL:             "https://www.yuque.com/api/v2",
		RemoteTimeout:             30 * time.Second,
		SyncConcurrency:           4,
		CacheType:                 "memory",
		InfinispanStartupTimeout:  30 * time.Second,
		MemoryCacheMaxCostEntries: 100_000,
		DatastoreType:             "sqlite",
		DBURL:                     "file:docsync.db?_busy_timeout=5000",
		DatastoreMigrateAtStart:   true,
		DBMaxOpenConns:            10,
		DBMaxIdleConns:            2,
		MongoDatabase:             "docsync",
		AssetType:                 "local",
		AssetDir:                  "public/images/yuque",
		AssetPublicPrefix:         "/images/yuque",
		AssetHosts:                "yuque.com,larksuitecdn,nlark.com",
		AssetTimeout:              30 * time.Second,
		Listener: ListenerConfig{
			Port:              8080,
			EnablePlainText:   true,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ManagementListener: ListenerConfig{
			EnablePlainText: true,
		},
		DrainTimeout:  30,
		MetricsLabels: "service=docsync",
		LogLevel:      "info",
	}
}

// HasCredentials reports whether token, login and repo are all set.
func (c *Config) HasCredentials() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.Token) != "" &&
		strings.TrimSpace(c.Login) != "" &&
		strings.TrimSpace(c.Repo) != ""
}

// Namespace returns "login/repo".
func (c *Config) Namespace() string {
	return strings.TrimSpace(c.Login) + "/" + strings.TrimSpace(c.Repo)
}

// CacheTTL returns the effective runtime cache TTL.
func (c *Config) CacheTTL() time.Duration {
	if c == nil {
		return DefaultCacheTTL
	}
	return ParseCacheTTL(c.CacheTTLRaw)
}

const maxTTLMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// ParseCacheTTL interprets raw as a non-negative number of milliseconds.
// Empty, non-numeric, negative or non-finite input yields DefaultCacheTTL.
func ParseCacheTTL(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultCacheTTL
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil || ms < 0 || math.IsNaN(ms) || math.IsInf(ms, 0) || ms > maxTTLMillis {
		return DefaultCacheTTL
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// AssetHostList splits AssetHosts into trimmed, non-empty entries.
func (c *Config) AssetHostList() []string {
	var hosts []string
	for _, part := range strings.Split(c.AssetHosts, ",") {
		if v := strings.TrimSpace(part); v != "" {
			hosts = append(hosts, v)
		}
	}
	return hosts
}

// ResolvedTempDir returns the configured temp directory or the platform default.
func (c *Config) ResolvedTempDir() string {
	if c == nil {
		return os.TempDir()
	}
	if dir := strings.TrimSpace(c.TempDir); dir != "" {
		return dir
	}
	return os.TempDir()
}
