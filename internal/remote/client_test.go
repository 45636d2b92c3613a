package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api/v2", Token: "tok", Login: "acme", Repo: "handbook"})
}

func TestFetchTocSendsTokenAndUnwrapsData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/repos/acme/handbook/toc", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get(AuthHeader))
		_, _ = w.Write([]byte(`{"data":[{"uuid":"a","title":"Guide","doc_id":42},{"uuid":"b","parent_uuid":"a","doc_id":"43"}]}`))
	})

	toc, err := client.FetchToc(context.Background())
	require.NoError(t, err)
	require.Len(t, toc, 2)
	assert.Equal(t, "42", toc[0].DocID.String())
	assert.Equal(t, "43", toc[1].DocID.String())
	assert.Equal(t, "a", toc[1].ParentUUID)
}

func TestFetchDocumentListAndDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/repos/acme/handbook/docs":
			_, _ = w.Write([]byte(`{"data":[{"id":1,"slug":"intro","title":"Intro","public":1,"published_at":"2024-01-02T00:00:00Z"}]}`))
		case "/api/v2/repos/acme/handbook/docs/intro":
			assert.Equal(t, "1", r.URL.Query().Get("raw"))
			_, _ = w.Write([]byte(`{"data":{"body":"# Intro","updated_at":"2024-02-01T00:00:00Z"}}`))
		default:
			http.NotFound(w, r)
		}
	})

	docs, err := client.FetchDocumentList(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, docs[0].Published())
	assert.False(t, docs[0].Locked())

	detail, err := client.FetchDocumentDetail(context.Background(), "intro")
	require.NoError(t, err)
	assert.Equal(t, "# Intro", detail.Body)
	assert.Equal(t, "2024-02-01T00:00:00Z", detail.UpdatedAt)
}

func TestAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"bad token"}`))
		})
		_, err := client.FetchToc(context.Background())
		require.Error(t, err)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, status, authErr.StatusCode)
		assert.Contains(t, authErr.Body, "bad token")
		assert.False(t, IsUnavailable(err))
	}
}

func TestServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.FetchDocumentList(context.Background())
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, http.StatusBadGateway, unavailable.StatusCode)
	assert.True(t, unavailable.Retryable())
}

func TestNotFoundIsUnavailableButNotRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := client.FetchDocumentDetail(context.Background(), "missing")
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.False(t, unavailable.Retryable())
	assert.False(t, IsAuth(err))
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	client := New(Options{BaseURL: srv.URL, Token: "tok", Login: "a", Repo: "b", Timeout: 50 * time.Millisecond})

	_, err := client.FetchToc(context.Background())
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Zero(t, unavailable.StatusCode)
	assert.True(t, unavailable.Retryable())
}

func TestMalformedJSONIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":`))
	})
	_, err := client.FetchToc(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
	assert.False(t, IsUnavailable(err))
	assert.Equal(t, int32(1), calls.Load())
}
