package ingest

import (
	"context"
	"testing"

	"github.com/chirino/docsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSyncReportsChanges(t *testing.T) {
	src := handbook()
	store := newMemStore()
	sync := NewBuildSync(NewPipeline(src, nil, 2), store)
	ctx := context.Background()

	first, err := sync.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Entries)
	assert.Len(t, first.Added, 4)
	assert.Empty(t, first.Changed)
	assert.NotEmpty(t, first.RunID)

	stored, err := store.Get(ctx, "Guide")
	require.NoError(t, err)
	assert.Equal(t, Digest("guide body"), stored.Digest)

	// Second run: one body changes and one document disappears.
	src.details["guide"] = model.DocumentDetail{Body: "guide body v2"}
	src.docs = src.docs[:3]
	second, err := sync.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Guide"}, second.Changed)
	assert.Equal(t, []string{"Guide/FAQ", "Guide/Install - Setup"}, second.Unchanged)
	assert.Equal(t, []string{"Loose-Notes"}, second.Removed)
	assert.Empty(t, second.Added)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestBuildSyncWithoutCredentialsIsNoop(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Upsert(context.Background(), []model.StoredEntry{{ID: "kept"}}))

	report, err := NewBuildSync(NewPipeline(nil, nil, 0), store).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, store.clears)
	_, err = store.Get(context.Background(), "kept")
	assert.NoError(t, err)
}

func TestBuildSyncFailureLeavesStoreCleared(t *testing.T) {
	src := handbook()
	src.failOn = "install"
	store := newMemStore()
	require.NoError(t, store.Upsert(context.Background(), []model.StoredEntry{{ID: "stale"}}))

	report, err := NewBuildSync(NewPipeline(src, nil, 1), store).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBuildSyncWritesOneRowPerID(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	report, err := NewBuildSync(NewPipeline(sameTitles(), nil, 2), store).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Entries)

	require.Len(t, store.batches, 1)
	assert.ElementsMatch(t, []string{"Same", "Other"}, store.batches[0])

	stored, err := store.Get(ctx, "Same")
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Body)
}

func TestDigestIsHexSHA256(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(""))
}
