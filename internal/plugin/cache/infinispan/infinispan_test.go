package infinispan

import (
	"context"
	"testing"
	"time"

	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/model"
	registrycache "github.com/chirino/docsync/internal/registry/cache"
	"github.com/chirino/docsync/internal/testutil/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsUseRESP2(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.InfinispanHost = "ispn:11222"
	cfg.InfinispanUsername = "admin"
	cfg.InfinispanPassword = "secret"

	opts := options(&cfg)
	assert.Equal(t, 2, opts.Protocol)
	assert.Equal(t, "ispn:11222", opts.Addr)
	assert.Equal(t, "admin", opts.Username)
}

func TestLoadRequiresHost(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := load(config.WithContext(context.Background(), &cfg))
	require.Error(t, err)
}

func TestInfinispanEntriesCache(t *testing.T) {
	ep := containers.Infinispan(t)
	cfg := config.DefaultConfig()
	cfg.InfinispanHost = ep.Host
	cfg.InfinispanUsername = ep.Username
	cfg.InfinispanPassword = ep.Password
	ctx := config.WithContext(context.Background(), &cfg)

	c, err := load(ctx)
	require.NoError(t, err)

	snapshot := registrycache.CachedEntries{
		Entries:   []model.ContentEntry{{ID: "Guide/FAQ", Metadata: model.EntryMetadata{Title: "FAQ"}}},
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, c.Set(ctx, "acme/handbook", snapshot, time.Minute))
	got, err := c.Get(ctx, "acme/handbook")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Guide/FAQ", got.Entries[0].ID)
}
