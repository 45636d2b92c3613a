package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/testutil/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyAndPublicPath(t *testing.T) {
	s := &Store{bucket: "assets", prefix: "docs/images", publicBase: "https://cdn.example.com"}
	assert.Equal(t, "docs/images/abc.png", s.key("abc.png"))
	assert.Equal(t, "https://cdn.example.com/docs/images/abc.png", s.PublicPath("abc.png"))

	bare := &Store{bucket: "assets", publicBase: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/abc.png", bare.PublicPath("abc.png"))
}

func TestLoadRequiresBucket(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := load(config.WithContext(context.Background(), &cfg))
	require.Error(t, err)
}

func TestPutThenExists(t *testing.T) {
	containers.S3(t, "docsync-assets")

	cfg := config.DefaultConfig()
	cfg.S3Bucket = "docsync-assets"
	cfg.S3Prefix = "images"
	cfg.S3UsePathStyle = true
	cfg.TempDir = t.TempDir()
	ctx := config.WithContext(context.Background(), &cfg)

	store, err := load(ctx)
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "0cc175b9c0f1b6a831c399e269772661.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "0cc175b9c0f1b6a831c399e269772661.png", strings.NewReader("png-bytes"), "image/png"))

	ok, err = store.Exists(ctx, "0cc175b9c0f1b6a831c399e269772661.png")
	require.NoError(t, err)
	assert.True(t, ok)
}
