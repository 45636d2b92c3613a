package ingest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chirino/docsync/internal/model"
	registrycache "github.com/chirino/docsync/internal/registry/cache"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"github.com/chirino/docsync/internal/remote"
)

type fakeSource struct {
	toc     []model.TocNode
	docs    []model.DocumentSummary
	details map[string]model.DocumentDetail
	failOn  string
	calls   atomic.Int32
	delay   time.Duration
}

func (f *fakeSource) FetchToc(context.Context) ([]model.TocNode, error) {
	f.calls.Add(1)
	return f.toc, nil
}

func (f *fakeSource) FetchDocumentList(context.Context) ([]model.DocumentSummary, error) {
	f.calls.Add(1)
	return f.docs, nil
}

func (f *fakeSource) FetchDocumentDetail(ctx context.Context, slug string) (*model.DocumentDetail, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if slug == f.failOn {
		return nil, &remote.UnavailableError{Endpoint: "doc", StatusCode: 503, Body: "maintenance"}
	}
	d := f.details[slug]
	return &d, nil
}

type upperNormalizer struct{}

func (upperNormalizer) Normalize(_ context.Context, body string) string {
	return strings.ToUpper(body)
}

type memStore struct {
	mu      sync.Mutex
	entries map[string]model.StoredEntry
	clears  int
	batches [][]string
}

func newMemStore() *memStore { return &memStore{entries: map[string]model.StoredEntry{}} }

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.entries = map[string]model.StoredEntry{}
	return nil
}

func (m *memStore) Upsert(_ context.Context, entries []model.StoredEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		m.entries[e.ID] = e
		ids = append(ids, e.ID)
	}
	m.batches = append(m.batches, ids)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*model.StoredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, &registrystore.NotFoundError{Resource: "entry", ID: id}
	}
	return &e, nil
}

func (m *memStore) List(context.Context) ([]model.StoredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.StoredEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Digests(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for id, e := range m.entries {
		out[id] = e.Digest
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

type mapCache struct {
	mu    sync.Mutex
	items map[string]registrycache.CachedEntries
}

func newMapCache() *mapCache { return &mapCache{items: map[string]registrycache.CachedEntries{}} }

func (c *mapCache) Available() bool { return true }

func (c *mapCache) Get(_ context.Context, key string) (*registrycache.CachedEntries, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (c *mapCache) Set(_ context.Context, key string, entries registrycache.CachedEntries, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entries
	return nil
}

func (c *mapCache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// handbook is a small repository: a section with one child, a document that
// is only matched by url, a document outside the TOC and an unpublished draft.
func handbook() *fakeSource {
	return &fakeSource{
		toc: []model.TocNode{
			{UUID: "u-guide", Title: "Guide", DocID: "1"},
			{UUID: "u-install", Title: "Install / Setup", DocID: "2", ParentUUID: "u-guide"},
			{UUID: "u-faq", Title: "FAQ", URL: "faq", ParentUUID: "u-guide"},
		},
		docs: []model.DocumentSummary{
			{ID: "1", Slug: "guide", Title: "Guide", Public: 1, CreatedAt: "2024-01-01T00:00:00Z", PublishedAt: "2024-01-01T00:00:00Z"},
			{ID: "2", Slug: "install", Title: "Install", Public: 0, CreatedAt: "2024-01-02T00:00:00Z", UpdatedAt: "2024-03-01T00:00:00Z", PublishedAt: "2024-01-02T00:00:00Z"},
			{ID: "3", Slug: "faq", Title: "FAQ", Public: 1, CreatedAt: "2024-01-03T00:00:00Z", PublishedAt: "2024-01-03T00:00:00Z"},
			{ID: "4", Slug: "loose", Title: "Loose/Notes", Public: 1, Description: "extra", CreatedAt: "2024-01-04T00:00:00Z", PublishedAt: "2024-01-04T00:00:00Z"},
			{ID: "5", Slug: "draft", Title: "Draft", Public: 1, CreatedAt: "2024-01-05T00:00:00Z"},
		},
		details: map[string]model.DocumentDetail{
			"guide":   {Body: "guide body"},
			"install": {Body: "install body"},
			"faq":     {Body: "faq body", UpdatedAt: "2024-02-02T00:00:00Z"},
			"loose":   {Body: "loose body"},
		},
	}
}

// sameTitles holds two documents outside the TOC whose titles collide.
func sameTitles() *fakeSource {
	return &fakeSource{
		docs: []model.DocumentSummary{
			{ID: "1", Slug: "a", Title: "Same", PublishedAt: "2024-01-01T00:00:00Z"},
			{ID: "2", Slug: "other", Title: "Other", PublishedAt: "2024-01-01T00:00:00Z"},
			{ID: "3", Slug: "b", Title: "Same", PublishedAt: "2024-01-02T00:00:00Z"},
		},
		details: map[string]model.DocumentDetail{
			"a":     {Body: "first"},
			"other": {Body: "other"},
			"b":     {Body: "second"},
		},
	}
}
