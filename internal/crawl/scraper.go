package crawl

import "context"

// Page is the fetched content of a single posting URL.
type Page struct {
	URL        string
	Title      string
	Content    string
	StatusCode int
}

// Result holds a fetched page with the backend that produced it.
type Result struct {
	Page   Page
	Source string // e.g. "jina", "firecrawl"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
