package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chirino/docsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.DBURL = "file:" + filepath.Join(dir, "docsync.db")
	cfg.AssetDir = filepath.Join(dir, "images")
	return &cfg
}

func TestAssembleWithoutCredentials(t *testing.T) {
	cfg := testConfig(t)
	ctx := config.WithContext(context.Background(), cfg)

	c, err := Assemble(ctx, cfg, Options{})
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Pipeline.Configured())
	assert.NotNil(t, c.Assets)
	require.NotNil(t, c.Runtime)

	entries, err := c.Runtime.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	report, err := c.Build.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
}

func TestAssembleFallsBackToNoCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheType = "does-not-exist"
	ctx := config.WithContext(context.Background(), cfg)

	c, err := Assemble(ctx, cfg, Options{SkipAssets: true})
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Cache)
	assert.False(t, c.Cache.Available())
	assert.Nil(t, c.Assets)
}

func TestAssembleUnknownStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatastoreType = "nope"
	ctx := config.WithContext(context.Background(), cfg)

	_, err := Assemble(ctx, cfg, Options{})
	require.Error(t, err)
}
