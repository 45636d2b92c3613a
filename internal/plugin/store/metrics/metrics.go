package metrics

import (
	"context"
	"time"

	"github.com/chirino/docsync/internal/model"
	"github.com/chirino/docsync/internal/registry/store"
	"github.com/chirino/docsync/internal/security"
)

// Wrap returns an EntryStore that records StoreLatency for every operation.
func Wrap(inner store.EntryStore) store.EntryStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.EntryStore
}

func observe(op string, start time.Time) {
	if security.StoreLatency == nil {
		return
	}
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) Clear(ctx context.Context) error {
	defer observe("clear", time.Now())
	return m.inner.Clear(ctx)
}

func (m *metricsStore) Upsert(ctx context.Context, entries []model.StoredEntry) error {
	defer observe("upsert", time.Now())
	return m.inner.Upsert(ctx, entries)
}

func (m *metricsStore) Get(ctx context.Context, id string) (*model.StoredEntry, error) {
	defer observe("get", time.Now())
	return m.inner.Get(ctx, id)
}

func (m *metricsStore) List(ctx context.Context) ([]model.StoredEntry, error) {
	defer observe("list", time.Now())
	return m.inner.List(ctx)
}

func (m *metricsStore) Digests(ctx context.Context) (map[string]string, error) {
	defer observe("digests", time.Now())
	return m.inner.Digests(ctx)
}

func (m *metricsStore) Close() error {
	return m.inner.Close()
}
