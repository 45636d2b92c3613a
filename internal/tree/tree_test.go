package tree

import (
	"testing"

	"github.com/chirino/docsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, title string, sort int) model.ContentEntry {
	return model.ContentEntry{ID: id, Metadata: model.EntryMetadata{Title: title, SortOrder: sort}}
}

func names(nodes []*model.TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestSectionMergesDirectoryAndFile(t *testing.T) {
	forest := Build([]model.ContentEntry{
		entry("A/B", "Doc1", 2),
		entry("A", "DocA", 1),
	})

	require.Len(t, forest, 1)
	root := forest[0]
	assert.Equal(t, "A", root.Name)
	assert.Equal(t, model.NodeKindDirectory, root.Kind)
	assert.Equal(t, "A", root.Slug)
	assert.Equal(t, "DocA", root.Title)
	require.NotNil(t, root.SortOrder)
	assert.Equal(t, 1, *root.SortOrder)

	require.Len(t, root.Children, 1)
	child := root.Children[0]
	assert.Equal(t, "B", child.Name)
	assert.Equal(t, "A/B", child.Path)
	assert.Equal(t, "A/B", child.Slug)
	assert.Equal(t, model.NodeKindFile, child.Kind)
	assert.Greater(t, *child.SortOrder, *root.SortOrder)
}

func TestFileThatGainsChildrenBecomesDirectory(t *testing.T) {
	forest := Build([]model.ContentEntry{
		entry("A", "DocA", 1),
		entry("A/B", "Doc1", 2),
	})
	require.Len(t, forest, 1)
	assert.Equal(t, model.NodeKindDirectory, forest[0].Kind)
	assert.Equal(t, "A", forest[0].Slug)
	assert.Len(t, forest[0].Children, 1)
}

func TestSortPolicy(t *testing.T) {
	forest := Build([]model.ContentEntry{
		entry("zeta", "Zeta", 5),
		entry("alpha", "Alpha", 5),
		entry("first", "First", 0),
		entry("Dir/leaf", "Leaf", 9),
		entry("loose", "Loose", model.UnorderedSortOrder),
	})
	// Dir has no sortOrder of its own so it sorts after every annotated node.
	assert.Equal(t, []string{"first", "alpha", "zeta", "loose", "Dir"}, names(forest))
}

func TestUnannotatedDirectoriesBeforeFilesThenCollation(t *testing.T) {
	forest := Build([]model.ContentEntry{
		entry("root/b/x", "x", 1),
		entry("root/a/y", "y", 1),
		entry("root/c/z", "z", 1),
	})
	require.Len(t, forest, 1)
	assert.Equal(t, []string{"a", "b", "c"}, names(forest[0].Children))
}

func TestCollationIsLocaleAware(t *testing.T) {
	forest := Build([]model.ContentEntry{
		{ID: "dir/b"}, {ID: "dir/B"}, {ID: "dir/a"},
	})
	require.Len(t, forest, 1)
	// All children share sortOrder 0, so collation decides: a < b < B.
	assert.Equal(t, []string{"a", "b", "B"}, names(forest[0].Children))
}

func TestSegmentsDropsPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Segments("/a/./b/"))
	assert.Empty(t, Segments("//."))

	forest := Build([]model.ContentEntry{{ID: "./"}, entry("/x//y", "Y", 0)})
	require.Len(t, forest, 1)
	assert.Equal(t, "x", forest[0].Name)
	assert.Equal(t, "x/y", forest[0].Children[0].Path)
}
