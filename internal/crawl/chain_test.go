package crawl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockScraper implements Scraper for testing.
type mockScraper struct {
	name     string
	supports bool
	result   *Result
	err      error
}

func (m *mockScraper) Name() string                                        { return m.name }
func (m *mockScraper) Supports(_ string) bool                              { return m.supports }
func (m *mockScraper) Scrape(_ context.Context, _ string) (*Result, error) { return m.result, m.err }

func TestChain_Scrape_FirstSuccess(t *testing.T) {
	s1 := &mockScraper{
		name: "primary", supports: true,
		result: &Result{
			Page:   Page{URL: "https://acme.com/jobs/1", Title: "Backend Engineer", Content: "posting"},
			Source: "primary",
		},
	}
	s2 := &mockScraper{name: "fallback", supports: true}

	chain := NewChain(s1, s2)
	result, err := chain.Scrape(context.Background(), "https://acme.com/jobs/1")

	require.NoError(t, err)
	assert.Equal(t, "primary", result.Source)
	assert.Equal(t, "https://acme.com/jobs/1", result.Page.URL)
}

func TestChain_Scrape_FallbackOnError(t *testing.T) {
	s1 := &mockScraper{name: "primary", supports: true, err: errors.New("failed")}
	s2 := &mockScraper{
		name: "fallback", supports: true,
		result: &Result{
			Page:   Page{URL: "https://acme.com/jobs/1", Title: "Backend Engineer"},
			Source: "fallback",
		},
	}

	chain := NewChain(s1, s2)
	result, err := chain.Scrape(context.Background(), "https://acme.com/jobs/1")

	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
}

func TestChain_Scrape_AllFail(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: true, err: errors.New("s1 error")}
	s2 := &mockScraper{name: "s2", supports: true, err: errors.New("s2 error")}

	chain := NewChain(s1, s2)
	result, err := chain.Scrape(context.Background(), "https://acme.com/jobs/1")

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "all backends failed")
}

func TestChain_Scrape_SkipsUnsupported(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: false}
	s2 := &mockScraper{
		name: "s2", supports: true,
		result: &Result{Page: Page{URL: "https://acme.com/jobs/1"}, Source: "s2"},
	}

	chain := NewChain(s1, s2)
	result, err := chain.Scrape(context.Background(), "https://acme.com/jobs/1")

	require.NoError(t, err)
	assert.Equal(t, "s2", result.Source)
}

func TestChain_Scrape_NoSuitableBackend(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: false}

	chain := NewChain(s1)
	result, err := chain.Scrape(context.Background(), "https://acme.com/jobs/1")

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "no suitable backend")
}
