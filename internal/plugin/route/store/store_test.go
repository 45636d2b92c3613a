package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chirino/docsync/internal/model"
	routestore "github.com/chirino/docsync/internal/plugin/route/store"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStore struct {
	rows []model.StoredEntry
}

func (f *fixedStore) Clear(context.Context) error { return nil }
func (f *fixedStore) Upsert(context.Context, []model.StoredEntry) error { return nil }
func (f *fixedStore) Digests(context.Context) (map[string]string, error) { return nil, nil }
func (f *fixedStore) List(context.Context) ([]model.StoredEntry, error) { return f.rows, nil }
func (f *fixedStore) Close() error { return nil }
func (f *fixedStore) Get(_ context.Context, id string) (*model.StoredEntry, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, &registrystore.NotFoundError{Resource: "entry", ID: id}
}

func TestStoreRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	routestore.MountRoutes(r, &fixedStore{rows: []model.StoredEntry{
		{ID: "Guide/Install", Title: "Install", Digest: "abc", SortOrder: 1, SyncedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/store/entries/Guide/Install", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Guide/Install", body["id"])
	assert.Equal(t, "abc", body["digest"])
	assert.Equal(t, "2024-01-01T00:00:00Z", body["syncedAt"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/store/entries", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/store/entries/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
