// Package assets localizes remote images into content-addressed storage.
package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	registryasset "github.com/chirino/docsync/internal/registry/asset"
	"github.com/chirino/docsync/internal/security"
	"golang.org/x/sync/singleflight"
)

// DefaultExtension is used when the URL path carries no extension.
const DefaultExtension = ".png"

// DefaultHosts are the host substrings of the knowledge base's image CDNs.
var DefaultHosts = []string{"yuque.com", "larksuitecdn", "nlark.com"}

// Options configures a Localizer.
type Options struct {
	// Hosts are matched as substrings of the URL host. Empty uses DefaultHosts.
	Hosts      []string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Localizer downloads candidate images once and rewrites them to local paths.
type Localizer struct {
	store      registryasset.AssetStore
	hosts      []string
	httpClient *http.Client
	timeout    time.Duration
	group      singleflight.Group
}

// NewLocalizer returns a Localizer writing through store.
func NewLocalizer(store registryasset.AssetStore, opts Options) *Localizer {
	hosts := opts.Hosts
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Localizer{
		store:      store,
		hosts:      hosts,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// IsCandidate reports whether rawURL points at a recognized asset host.
func (l *Localizer) IsCandidate(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range l.hosts {
		if h != "" && strings.Contains(host, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

// AssetName derives the content-addressed file name for rawURL: the hex md5
// of the full URL plus the extension of its path.
func AssetName(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = path.Ext(u.Path)
	} else {
		p := rawURL
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		ext = path.Ext(p)
	}
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = DefaultExtension
	}
	return hex.EncodeToString(sum[:]) + strings.ToLower(ext)
}

// Localize returns the local path for a candidate image, downloading it if
// the store does not hold it yet. Non-candidates and failures return rawURL.
func (l *Localizer) Localize(ctx context.Context, rawURL string) string {
	if l == nil || l.store == nil || !l.IsCandidate(rawURL) {
		return rawURL
	}
	name := AssetName(rawURL)
	v, err, _ := l.group.Do(name, func() (interface{}, error) {
		return l.localize(ctx, rawURL, name)
	})
	if err != nil {
		security.RecordAssetDownload("failed")
		log.Warn("Failed to localize image, keeping remote URL", "url", rawURL, "err", err)
		return rawURL
	}
	return v.(string)
}

func (l *Localizer) localize(ctx context.Context, rawURL, name string) (string, error) {
	exists, err := l.store.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		security.RecordAssetDownload("hit")
		return l.store.PublicPath(name), nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}
	if err := l.store.Put(ctx, name, resp.Body, resp.Header.Get("Content-Type")); err != nil {
		return "", fmt.Errorf("store: %w", err)
	}
	security.RecordAssetDownload("downloaded")
	log.Debug("Downloaded image", "url", rawURL, "name", name)
	return l.store.PublicPath(name), nil
}
