package tree

import (
	"bytes"
	"testing"

	"github.com/chirino/docsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteText(t *testing.T) {
	nodes := Build([]model.ContentEntry{
		{ID: "Guide", Metadata: model.EntryMetadata{Title: "Guide", SortOrder: 0}},
		{ID: "Guide/Install", Metadata: model.EntryMetadata{Title: "Install it", SortOrder: 1}},
		{ID: "Notes", Metadata: model.EntryMetadata{Title: "Notes", SortOrder: 2}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, nodes))
	assert.Equal(t, "Guide/\n  Install  (Install it)\nNotes\n", buf.String())
}
