package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/chirino/docsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.Listener.Port = 0
	cfg.DBURL = "file:" + filepath.Join(dir, "docsync.db")
	cfg.AssetDir = filepath.Join(dir, "images")
	cfg.MetricsLabels = ""
	if mutate != nil {
		mutate(&cfg)
	}
	ctx := config.WithContext(context.Background(), &cfg)

	srv, err := StartServer(ctx, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestServerWithoutCredentials(t *testing.T) {
	srv := startTestServer(t, nil)
	base := fmt.Sprintf("http://127.0.0.1:%d", srv.Running.Port)

	resp, err := http.Get(base + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/v1/entries")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	var body struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Data)

	resp, err = http.Post(base+"/v1/admin/sync", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report struct {
		Skipped bool `json:"skipped"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Skipped)
}

func TestServerDedicatedManagementPort(t *testing.T) {
	srv := startTestServer(t, func(cfg *config.Config) {
		cfg.ManagementListenerEnabled = true
		cfg.ManagementListener.Port = 0
	})
	require.NotNil(t, srv.Management)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", srv.Management.Port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", srv.Running.Port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListenerRequiresAProtocol(t *testing.T) {
	_, err := startListener("main", config.ListenerConfig{}, http.NotFoundHandler())
	require.Error(t, err)
}
