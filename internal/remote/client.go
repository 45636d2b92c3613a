// Package remote is the HTTP client for the Yuque-compatible knowledge base API.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chirino/docsync/internal/model"
	"github.com/chirino/docsync/internal/security"
)

const (
	// AuthHeader carries the API token on every request.
	AuthHeader = "X-Auth-Token"

	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of an error response is kept for logs.
	maxErrorBody = 4096
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Login      string
	Repo       string
	HTTPClient *http.Client
	// Timeout bounds each call. Zero uses 30s.
	Timeout time.Duration
}

// ContentSource is the read surface the ingestion pipeline depends on.
type ContentSource interface {
	FetchToc(ctx context.Context) ([]model.TocNode, error)
	FetchDocumentList(ctx context.Context) ([]model.DocumentSummary, error)
	FetchDocumentDetail(ctx context.Context, slug string) (*model.DocumentDetail, error)
}

// Client issues the three read calls. It performs no retries.
type Client struct {
	base       string
	token      string
	httpClient *http.Client
	timeout    time.Duration
}

var _ ContentSource = (*Client)(nil)

// New creates a Client for the repository login/repo.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(opts.BaseURL, "/") + "/repos/" +
		url.PathEscape(strings.TrimSpace(opts.Login)) + "/" + url.PathEscape(strings.TrimSpace(opts.Repo))
	return &Client{
		base:       base,
		token:      opts.Token,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// FetchToc returns the repository table of contents.
func (c *Client) FetchToc(ctx context.Context) ([]model.TocNode, error) {
	var out envelope[[]model.TocNode]
	if err := c.get(ctx, "toc", "/toc", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// FetchDocumentList returns the flat document list, in remote order.
func (c *Client) FetchDocumentList(ctx context.Context) ([]model.DocumentSummary, error) {
	var out envelope[[]model.DocumentSummary]
	if err := c.get(ctx, "docs", "/docs", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// FetchDocumentDetail returns the raw body of the document with the given slug.
func (c *Client) FetchDocumentDetail(ctx context.Context, slug string) (*model.DocumentDetail, error) {
	var out envelope[*model.DocumentDetail]
	if err := c.get(ctx, "doc", "/docs/"+url.PathEscape(slug)+"?raw=1", &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return &model.DocumentDetail{}, nil
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("remote %s: build request: %w", endpoint, err)
	}
	req.Header.Set(AuthHeader, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		security.RecordRemoteRequest(endpoint, "error")
		return &UnavailableError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		security.RecordRemoteRequest(endpoint, "auth")
		return &AuthError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		security.RecordRemoteRequest(endpoint, "status")
		return &UnavailableError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		security.RecordRemoteRequest(endpoint, "error")
		return &UnavailableError{Endpoint: endpoint, Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		security.RecordRemoteRequest(endpoint, "decode")
		return fmt.Errorf("remote %s: parse response: %w", endpoint, err)
	}
	security.RecordRemoteRequest(endpoint, "ok")
	return nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}
