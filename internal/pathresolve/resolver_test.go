package pathresolve

import (
	"testing"

	"github.com/chirino/docsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNestedPaths(t *testing.T) {
	toc := []model.TocNode{
		{UUID: "root", Title: "Guide"},
		{UUID: "child", Title: "Install", ParentUUID: "root"},
		{UUID: "leaf", Title: "Linux", ParentUUID: "child"},
	}
	r := New(toc, nil)

	paths := r.ResolveAll()
	assert.Equal(t, map[string]string{
		"root":  "Guide",
		"child": "Guide/Install",
		"leaf":  "Guide/Install/Linux",
	}, paths)
	assert.Empty(t, r.Anomalies())
}

func TestResolveIsIdempotentAndLinear(t *testing.T) {
	toc := []model.TocNode{{UUID: "n0", Title: "Level 0"}}
	for i := 1; i < 50; i++ {
		toc = append(toc, model.TocNode{
			UUID:       "n" + string(rune('0'+i%10)) + string(rune('a'+i/10)),
			Title:      "L",
			ParentUUID: toc[i-1].UUID,
		})
	}
	// Deepest first so every ancestor is reached through recursion.
	reversed := make([]model.TocNode, len(toc))
	for i := range toc {
		reversed[len(toc)-1-i] = toc[i]
	}
	r := New(reversed, nil)

	first, ok := r.Resolve(toc[len(toc)-1].UUID)
	require.True(t, ok)
	second, _ := r.Resolve(toc[len(toc)-1].UUID)
	assert.Equal(t, first, second)

	r.ResolveAll()
	r.ResolveAll()
	assert.Equal(t, len(toc), r.Computations())
}

func TestSegmentFallbackChain(t *testing.T) {
	toc := []model.TocNode{
		{UUID: "t", Title: "Titled"},
		{UUID: "d", DocID: "7"},
		{UUID: "s", Slug: "by-slug"},
		{UUID: "u"},
	}
	docs := []model.DocumentSummary{{ID: "7", Title: "From Doc"}}
	paths := New(toc, docs).ResolveAll()

	assert.Equal(t, "Titled", paths["t"])
	assert.Equal(t, "From Doc", paths["d"])
	assert.Equal(t, "by-slug", paths["s"])
	assert.Equal(t, "u", paths["u"])
}

func TestBlankSegmentsFallThrough(t *testing.T) {
	toc := []model.TocNode{
		{UUID: "p", Title: "Parent"},
		{UUID: "ws", Title: "   ", Slug: "ws-slug", ParentUUID: "p"},
		{UUID: "doc", Title: "\t", DocID: "8", ParentUUID: "p"},
		{UUID: "bare", Title: " ", Slug: "  ", ParentUUID: "ws"},
	}
	docs := []model.DocumentSummary{{ID: "8", Title: "Doc Title"}}
	paths := New(toc, docs).ResolveAll()

	assert.Equal(t, "Parent/ws-slug", paths["ws"])
	assert.Equal(t, "Parent/Doc Title", paths["doc"])
	assert.Equal(t, "Parent/ws-slug/bare", paths["bare"])
}

func TestSeparatorInTitleIsSubstituted(t *testing.T) {
	toc := []model.TocNode{
		{UUID: "p", Title: "CI/CD"},
		{UUID: "c", Title: " Build / Deploy ", ParentUUID: "p"},
	}
	paths := New(toc, nil).ResolveAll()
	assert.Equal(t, "CI-CD", paths["p"])
	assert.Equal(t, "CI-CD/Build - Deploy", paths["c"])
}

func TestUnknownParentBecomesRoot(t *testing.T) {
	r := New([]model.TocNode{{UUID: "orphan", Title: "Orphan", ParentUUID: "ghost"}}, nil)
	paths := r.ResolveAll()

	assert.Equal(t, "Orphan", paths["orphan"])
	require.Len(t, r.Anomalies(), 1)
	assert.Equal(t, AnomalyUnknownParent, r.Anomalies()[0].Kind)
}

func TestSelfReferenceBecomesRoot(t *testing.T) {
	r := New([]model.TocNode{{UUID: "loop", Title: "Loop", ParentUUID: "loop"}}, nil)
	paths := r.ResolveAll()

	assert.Equal(t, "Loop", paths["loop"])
	require.Len(t, r.Anomalies(), 1)
	assert.Equal(t, AnomalySelfReference, r.Anomalies()[0].Kind)
}

func TestCycleIsBrokenAtClosingNode(t *testing.T) {
	toc := []model.TocNode{
		{UUID: "a", Title: "A", ParentUUID: "c"},
		{UUID: "b", Title: "B", ParentUUID: "a"},
		{UUID: "c", Title: "C", ParentUUID: "b"},
	}
	r := New(toc, nil)
	paths := r.ResolveAll()

	// a → c → b → (a is visiting) so b closes the cycle and sits at root.
	assert.Equal(t, "B", paths["b"])
	assert.Equal(t, "B/C", paths["c"])
	assert.Equal(t, "B/C/A", paths["a"])
	require.Len(t, r.Anomalies(), 1)
	assert.Equal(t, AnomalyCycle, r.Anomalies()[0].Kind)
	assert.Equal(t, 3, r.Computations())
}

func TestResolveUnknownUUID(t *testing.T) {
	_, ok := New(nil, nil).Resolve("missing")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Summarize(map[string]string{"a": "A", "b": "A/B", "c": "A/B/C"}, 1)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 3, s.MaxDepth)
	assert.Equal(t, []string{"A/B"}, s.DeepPaths)
	assert.False(t, s.AllFlat)

	flat := Summarize(map[string]string{"a": "A", "b": "B"}, 5)
	assert.True(t, flat.AllFlat)
	assert.Empty(t, flat.DeepPaths)
}
