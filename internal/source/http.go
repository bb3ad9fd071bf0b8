package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/hiresignal/scout-cli/internal/resilience"
)

// maxResponseBytes bounds body reads; large boards run to a few MB.
const maxResponseBytes = 10 << 20

// HTTPOptions configures the shared fetch helper.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	PerHost      map[string]*rate.Limiter
	DefaultRate  rate.Limit
	DefaultBurst int
}

// DefaultRateLimiters returns per-host token buckets for the ATS APIs
// the stock sources hit.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"boards-api.greenhouse.io": rate.NewLimiter(5, 5),
		"api.lever.co":             rate.NewLimiter(5, 5),
	}
}

// HTTPFetcher is the GET helper shared by the HTTP-backed sources:
// per-host token buckets plus backoff retries on transient failures.
// Hosts without a configured bucket get a conservative default bucket,
// created on first use and cached.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a fetcher, filling zero options with defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "scout-cli/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.DefaultRate == 0 {
		opts.DefaultRate = 2
	}
	if opts.DefaultBurst == 0 {
		opts.DefaultBurst = 4
	}

	limiters := make(map[string]*rate.Limiter, len(opts.PerHost))
	for host, lim := range opts.PerHost {
		limiters[host] = lim
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: limiters,
	}
}

// limiterFor returns the token bucket for the URL's host.
func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.DefaultRate, f.opts.DefaultBurst)
		f.limiters[host] = lim
	}
	return lim
}

// Get fetches rawURL and returns the response body, retrying 429, 5xx,
// and network failures with backoff.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = f.opts.MaxRetries
	cfg.OnRetry = resilience.RetryLogger("source", "get")

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		return f.getOnce(ctx, rawURL)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "source: get %s", rawURL)
	}
	return body, nil
}

func (f *HTTPFetcher) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/json, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(eris.Errorf("status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON response into v.
func (f *HTTPFetcher) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return eris.Wrapf(err, "source: decode json from %s", rawURL)
	}
	return nil
}
