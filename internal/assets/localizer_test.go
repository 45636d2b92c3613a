package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chirino/docsync/internal/plugin/asset/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type imageServer struct {
	*httptest.Server
	calls  atomic.Int32
	status int
}

func newImageServer(t *testing.T) *imageServer {
	t.Helper()
	s := &imageServer{status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.calls.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestLocalizer(t *testing.T) (*Localizer, *local.Store) {
	t.Helper()
	store := local.New(filepath.Join(t.TempDir(), "images"), "/images/yuque")
	return NewLocalizer(store, Options{Hosts: []string{"127.0.0.1"}}), store
}

func TestAssetName(t *testing.T) {
	sum := md5.Sum([]byte("https://cdn.nlark.com/a/b/pic.JPG?x-oss-process=resize"))
	assert.Equal(t, hex.EncodeToString(sum[:])+".jpg", AssetName("https://cdn.nlark.com/a/b/pic.JPG?x-oss-process=resize"))

	sum = md5.Sum([]byte("https://cdn.nlark.com/a/b/pic"))
	assert.Equal(t, hex.EncodeToString(sum[:])+".png", AssetName("https://cdn.nlark.com/a/b/pic"))
}

func TestIsCandidate(t *testing.T) {
	l := NewLocalizer(nil, Options{})
	assert.True(t, l.IsCandidate("https://cdn.nlark.com/yuque/0/2024/png/1.png"))
	assert.True(t, l.IsCandidate("https://www.yuque.com/attachments/x.gif"))
	assert.True(t, l.IsCandidate("https://p3-larksuitecdn.example/img"))
	assert.False(t, l.IsCandidate("https://example.com/yuque.com.png"))
	assert.False(t, l.IsCandidate("/relative/path.png"))
}

func TestLocalizeSecondCallMakesNoNetworkCalls(t *testing.T) {
	srv := newImageServer(t)
	l, store := newTestLocalizer(t)
	url := srv.URL + "/img/diagram.svg"

	first := l.Localize(context.Background(), url)
	assert.Equal(t, store.PublicPath(AssetName(url)), first)
	assert.Equal(t, int32(1), srv.calls.Load())

	// A fresh localizer over the same directory simulates a later run.
	again := NewLocalizer(store, Options{Hosts: []string{"127.0.0.1"}})
	second := again.Localize(context.Background(), url)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestLocalizeFailureReturnsOriginalURL(t *testing.T) {
	srv := newImageServer(t)
	srv.status = http.StatusInternalServerError
	l, store := newTestLocalizer(t)
	url := srv.URL + "/img/broken.png"

	assert.Equal(t, url, l.Localize(context.Background(), url))
	exists, err := store.Exists(context.Background(), AssetName(url))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalizeNonCandidatePassesThrough(t *testing.T) {
	srv := newImageServer(t)
	store := local.New(t.TempDir(), "/images")
	l := NewLocalizer(store, Options{Hosts: []string{"cdn.example.org"}})

	url := srv.URL + "/x.png"
	assert.Equal(t, url, l.Localize(context.Background(), url))
	assert.Zero(t, srv.calls.Load())
}

func TestConcurrentLocalizeReturnsSamePath(t *testing.T) {
	srv := newImageServer(t)
	l, _ := newTestLocalizer(t)
	url := srv.URL + "/shared.png"

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Localize(context.Background(), url)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.NotEqual(t, url, results[0])
}
