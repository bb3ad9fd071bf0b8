// Package jina wraps the Jina AI reader and search endpoints. Reader
// renders a public URL as LLM-ready markdown; search returns web hits
// with the page content already extracted, so callers skip a separate
// scrape for discovery results.
package jina

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultReaderURL = "https://r.jina.ai"
	defaultSearchURL = "https://s.jina.ai"

	maxAttempts    = 3
	initialBackoff = time.Second
)

// Client is the subset of the Jina API the intake pipeline relies on.
type Client interface {
	// Read renders targetURL as markdown through the reader endpoint.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
	// Search runs a web search and returns results with extracted content.
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// ReadResponse is the reader payload.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the extracted page.
type ReadData struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Content string    `json:"content"`
	Usage   ReadUsage `json:"usage"`
}

// ReadUsage reports reader token spend.
type ReadUsage struct {
	Tokens int `json:"tokens"`
}

// Option adjusts client construction.
type Option func(*apiClient)

// WithBaseURL points the reader at a different host, usually a test server.
func WithBaseURL(u string) Option {
	return func(c *apiClient) { c.readerURL = u }
}

// WithSearchBaseURL points search at a different host.
func WithSearchBaseURL(u string) Option {
	return func(c *apiClient) { c.searchURL = u }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *apiClient) { c.hc = hc }
}

type apiClient struct {
	key       string
	readerURL string
	searchURL string
	hc        *http.Client
}

// NewClient builds a Jina client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &apiClient{
		key:       apiKey,
		readerURL: defaultReaderURL,
		searchURL: defaultSearchURL,
		hc: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transient reports whether a status is worth another attempt. Jina
// rate limits with 429, and its upstream renderer surfaces as 5xx blips.
func transient(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	}
	return false
}

// fetch GETs rawURL with auth headers, retrying transport errors and
// transient statuses with doubled backoff. It returns the status and
// body of the last attempt; callers decide which statuses are errors.
func (c *apiClient) fetch(ctx context.Context, rawURL string, markdown bool) (int, []byte, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, nil, eris.Wrap(err, "jina: build request")
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Accept", "application/json")
		if markdown {
			req.Header.Set("X-Return-Format", "markdown")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return resp.StatusCode, nil, eris.Wrap(err, "jina: read response body")
		}
		if transient(resp.StatusCode) {
			lastErr = eris.Errorf("jina: status %d: %s", resp.StatusCode, body)
			continue
		}
		return resp.StatusCode, body, nil
	}

	return 0, nil, lastErr
}

func (c *apiClient) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	status, body, err := c.fetch(ctx, c.readerURL+"/"+targetURL, true)
	if err != nil {
		return nil, eris.Wrap(err, "jina: read")
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("jina: read status %d: %s", status, body)
	}

	var out ReadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "jina: decode reader response")
	}
	return &out, nil
}
