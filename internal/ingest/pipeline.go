// Package ingest turns the remote knowledge base into content entries, either
// into the persistent store (BuildSync) or into a TTL cache (Runtime).
package ingest

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/model"
	"github.com/chirino/docsync/internal/pathresolve"
	"github.com/chirino/docsync/internal/remote"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent document detail fetches.
const DefaultConcurrency = 4

// BodyNormalizer cleans a raw document body.
type BodyNormalizer interface {
	Normalize(ctx context.Context, body string) string
}

// Pipeline runs the steps shared by both ingestion modes.
type Pipeline struct {
	source      remote.ContentSource
	normalizer  BodyNormalizer
	concurrency int
}

// NewPipeline returns a pipeline reading from source. A nil source means the
// remote is not configured and Collect returns config.ErrMissingCredentials.
// A nil normalizer leaves bodies untouched.
func NewPipeline(source remote.ContentSource, normalizer BodyNormalizer, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{source: source, normalizer: normalizer, concurrency: concurrency}
}

// Configured reports whether the pipeline has a remote to read from.
func (p *Pipeline) Configured() bool {
	return p != nil && p.source != nil
}

// Collect fetches, deduplicates, resolves and normalizes every published
// document. Entries are returned in document list order with one entry per
// id. Any detail fetch failure aborts the run.
func (p *Pipeline) Collect(ctx context.Context) ([]model.ContentEntry, error) {
	if !p.Configured() {
		return nil, config.ErrMissingCredentials
	}

	toc, err := p.source.FetchToc(ctx)
	if err != nil {
		log.Error("Failed to fetch TOC", "err", err, "body", errorBody(err))
		return nil, fmt.Errorf("fetch toc: %w", err)
	}
	rawDocs, err := p.source.FetchDocumentList(ctx)
	if err != nil {
		log.Error("Failed to fetch document list", "err", err, "body", errorBody(err))
		return nil, fmt.Errorf("fetch document list: %w", err)
	}

	docs := Dedupe(rawDocs)
	log.Info("Found unique documents", "unique", len(docs), "total", len(rawDocs))

	paths := pathresolve.New(toc, docs).ResolveAll()
	pathresolve.LogSummary(paths)
	positions := newTocIndex(toc)

	published := make([]model.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		if doc.Published() {
			published = append(published, doc)
		}
	}

	entries := make([]model.ContentEntry, len(published))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, doc := range published {
		g.Go(func() error {
			detail, err := p.source.FetchDocumentDetail(gctx, doc.Slug)
			if err != nil {
				log.Error("Failed to fetch document detail", "slug", doc.Slug, "err", err, "body", errorBody(err))
				return fmt.Errorf("fetch document %q: %w", doc.Slug, err)
			}
			entries[i] = p.buildEntry(gctx, doc, detail, positions, paths)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries = collapseDuplicateIDs(entries)
	log.Info("Loaded documents", "count", len(entries))
	return entries, nil
}

func (p *Pipeline) buildEntry(ctx context.Context, doc model.DocumentSummary, detail *model.DocumentDetail, positions tocIndex, paths map[string]string) model.ContentEntry {
	body := detail.Body
	if p.normalizer != nil {
		body = p.normalizer.Normalize(ctx, body)
	}

	sortOrder := model.UnorderedSortOrder
	id := ""
	if node, idx, ok := positions.lookup(doc); ok {
		sortOrder = idx
		id = paths[node.UUID]
	}
	if id == "" {
		id = pathresolve.SanitizeSegment(doc.Title)
	}
	if id == "" {
		id = doc.Slug
	}

	created := model.ParseTimestamp(doc.CreatedAt)
	updated := model.ParseTimestamp(doc.UpdatedAt)
	if updated == nil {
		updated = model.ParseTimestamp(detail.UpdatedAt)
	}
	if updated == nil {
		updated = created
	}

	return model.ContentEntry{
		ID:   id,
		Body: body,
		Metadata: model.EntryMetadata{
			Title:       doc.Title,
			Date:        created,
			Updated:     updated,
			Description: doc.Description,
			SortOrder:   sortOrder,
			Locked:      doc.Locked(),
		},
	}
}

// tocIndex finds the first TOC position referencing a document, either by
// doc_id or by url == slug.
type tocIndex struct {
	toc   []model.TocNode
	byDoc map[model.FlexID]int
	byURL map[string]int
}

func newTocIndex(toc []model.TocNode) tocIndex {
	idx := tocIndex{toc: toc, byDoc: map[model.FlexID]int{}, byURL: map[string]int{}}
	for i, node := range toc {
		if node.DocID != "" {
			if _, ok := idx.byDoc[node.DocID]; !ok {
				idx.byDoc[node.DocID] = i
			}
		}
		if node.URL != "" {
			if _, ok := idx.byURL[node.URL]; !ok {
				idx.byURL[node.URL] = i
			}
		}
	}
	return idx
}

func (t tocIndex) lookup(doc model.DocumentSummary) (model.TocNode, int, bool) {
	best := -1
	if i, ok := t.byDoc[doc.ID]; ok && doc.ID != "" {
		best = i
	}
	if i, ok := t.byURL[doc.Slug]; ok && doc.Slug != "" && (best < 0 || i < best) {
		best = i
	}
	if best < 0 {
		return model.TocNode{}, 0, false
	}
	return t.toc[best], best, true
}

// collapseDuplicateIDs keeps one entry per id. The later entry replaces the
// earlier one in the earlier one's position.
func collapseDuplicateIDs(entries []model.ContentEntry) []model.ContentEntry {
	index := make(map[string]int, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if i, seen := index[e.ID]; seen {
			log.Warn("Several documents resolve to the same id; the later one wins", "id", e.ID, "droppedTitle", out[i].Metadata.Title, "keptTitle", e.Metadata.Title)
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

func errorBody(err error) string {
	switch e := unwrapRemote(err).(type) {
	case *remote.AuthError:
		return e.Body
	case *remote.UnavailableError:
		return e.Body
	}
	return ""
}
