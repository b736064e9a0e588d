package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tracebot-dev/tracebot/internal/config"
	"github.com/tracebot-dev/tracebot/internal/version"
)

const (
	DefaultBaseURL = "https://api.trace.moe"

	searchPath = "/search"
	mePath     = "/me"
)

// Client talks to the trace.moe API. Its header set and query flags are
// fixed at construction; a Client is safe for concurrent use.
type Client struct {
	http      *http.Client
	logger    *slog.Logger
	searchURL string
	meURL     string
	headers   http.Header
}

// Option adjusts a Client during construction.
type Option func(*Client)

// WithBaseURL points the client at a different API root. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.searchURL = base + searchPath
		c.meURL = base + mePath
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient builds a search client from the trace section of the
// configuration. The anilistInfo flag is always requested; cutBorders only
// when configured on. The x-trace-key header is attached only when an API
// key is present.
func NewClient(log *slog.Logger, cfg config.TraceConfig, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}
	headers := http.Header{}
	headers.Set("User-Agent", version.UserAgent())
	if cfg.APIKey != "" {
		headers.Set("x-trace-key", cfg.APIKey)
	}
	c := &Client{
		http:      http.DefaultClient,
		logger:    log.With(slog.String("service", "trace")),
		searchURL: DefaultBaseURL + searchPath,
		meURL:     DefaultBaseURL + mePath,
		headers:   headers,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.searchURL += searchFlags(cfg.CutBorders)
	return c
}

func searchFlags(cutBorders bool) string {
	flags := "?anilistInfo"
	if cutBorders {
		flags += "&cutBorders"
	}
	return flags
}

// SearchByURL asks the API to fetch and search the given external media URL.
func (c *Client) SearchByURL(ctx context.Context, mediaURL string) (Response, error) {
	target := c.searchURL + "&url=" + url.QueryEscape(mediaURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build search request: %w", err)
	}
	return c.doSearch(req, "")
}

// SearchByBytes uploads raw media bytes for searching.
func (c *Client) SearchByBytes(ctx context.Context, data []byte, contentType string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(data))
	if err != nil {
		return Response{}, fmt.Errorf("build search request: %w", err)
	}
	return c.doSearch(req, contentType)
}

func (c *Client) doSearch(req *http.Request, contentType string) (Response, error) {
	applyHeaders(req, c.headers)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("search request failed", slog.Any("error", err))
		return Response{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Error("search request failed", slog.Int("status", resp.StatusCode))
		return Response{}, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Error("decode search response failed", slog.Any("error", err))
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.Error == nil && parsed.Result == nil {
		c.logger.Error("search response carries neither error nor result")
		return Response{}, ErrMalformedResponse
	}
	return parsed, nil
}

// GetQuota fetches the account status. It returns nil on any failure; the
// caller only distinguishes success from failure, not the cause.
func (c *Client) GetQuota(ctx context.Context) *Quota {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.meURL, nil)
	if err != nil {
		c.logger.Error("build quota request failed", slog.Any("error", err))
		return nil
	}
	applyHeaders(req, c.headers)
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("quota request failed", slog.Any("error", err))
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Error("quota request failed", slog.Int("status", resp.StatusCode))
		return nil
	}
	var quota Quota
	if err := json.NewDecoder(resp.Body).Decode(&quota); err != nil {
		c.logger.Error("decode quota response failed", slog.Any("error", err))
		return nil
	}
	return &quota
}

func applyHeaders(req *http.Request, headers http.Header) {
	for key, values := range headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
}
