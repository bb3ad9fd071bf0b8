package crawl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresignal/scout-cli/pkg/jina"
)

// fakeJina implements jina.Client with canned reader responses.
type fakeJina struct {
	resp  *jina.ReadResponse
	err   error
	reads int
}

func (f *fakeJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	f.reads++
	return f.resp, f.err
}

func (f *fakeJina) Search(_ context.Context, _ string) (*jina.SearchResponse, error) {
	return nil, errors.New("search not used by the reader adapter")
}

func longPosting() string {
	return "# Backend Engineer at Acme\n\nWe are looking for an engineer to build " +
		"and operate our Go services. You will design APIs, own deployments, and " +
		"work with Postgres and Kafka at meaningful scale."
}

func TestJinaAdapter_Name(t *testing.T) {
	adapter := NewJinaAdapter(&fakeJina{})
	assert.Equal(t, "jina", adapter.Name())
}

func TestJinaAdapter_Supports(t *testing.T) {
	adapter := NewJinaAdapter(&fakeJina{})
	assert.True(t, adapter.Supports("https://acme.com/jobs/1"))
	assert.True(t, adapter.Supports(""))
}

func TestJinaAdapter_Scrape_Success(t *testing.T) {
	fake := &fakeJina{resp: &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			URL:     "https://acme.com/jobs/1",
			Title:   "Backend Engineer",
			Content: longPosting(),
		},
	}}
	adapter := NewJinaAdapter(fake)

	result, err := adapter.Scrape(context.Background(), "https://acme.com/jobs/1")
	require.NoError(t, err)
	assert.Equal(t, "jina", result.Source)
	assert.Equal(t, "https://acme.com/jobs/1", result.Page.URL)
	assert.Equal(t, "Backend Engineer", result.Page.Title)
	assert.Equal(t, longPosting(), result.Page.Content)
	assert.Equal(t, 200, result.Page.StatusCode)
}

func TestJinaAdapter_Scrape_ClientError(t *testing.T) {
	fake := &fakeJina{err: errors.New("connection refused")}
	adapter := NewJinaAdapter(fake)

	_, err := adapter.Scrape(context.Background(), "https://fail.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestJinaAdapter_Scrape_NeedsFallback(t *testing.T) {
	fake := &fakeJina{resp: &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{URL: "https://blocked.com", Content: "short"},
	}}
	adapter := NewJinaAdapter(fake)

	_, err := adapter.Scrape(context.Background(), "https://blocked.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs fallback")
}

func TestJinaAdapter_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fake := &fakeJina{err: errors.New("upstream down")}
	adapter := NewJinaAdapter(fake)

	for i := 0; i < 3; i++ {
		_, err := adapter.Scrape(context.Background(), "https://fail.com")
		require.Error(t, err)
	}
	assert.Equal(t, 3, fake.reads)

	// Circuit is open: no further upstream calls.
	assert.False(t, adapter.Supports("https://fail.com"))
	_, err := adapter.Scrape(context.Background(), "https://fail.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, 3, fake.reads)
}

func TestJinaAdapter_SuccessResetsBreaker(t *testing.T) {
	fake := &fakeJina{err: errors.New("upstream down")}
	adapter := NewJinaAdapter(fake)

	_, _ = adapter.Scrape(context.Background(), "https://fail.com")
	_, _ = adapter.Scrape(context.Background(), "https://fail.com")

	fake.err = nil
	fake.resp = &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{URL: "https://acme.com/jobs/1", Content: longPosting()},
	}
	_, err := adapter.Scrape(context.Background(), "https://acme.com/jobs/1")
	require.NoError(t, err)

	// Two more failures should not trip the 3-failure threshold after a reset.
	fake.err = errors.New("upstream down again")
	fake.resp = nil
	_, _ = adapter.Scrape(context.Background(), "https://fail.com")
	_, _ = adapter.Scrape(context.Background(), "https://fail.com")
	assert.True(t, adapter.Supports("https://fail.com"))
}

func TestNeedsFallback(t *testing.T) {
	tests := []struct {
		name string
		resp *jina.ReadResponse
		want bool
	}{
		{
			name: "nil response",
			resp: nil,
			want: true,
		},
		{
			name: "non-200 code",
			resp: &jina.ReadResponse{Code: 403},
			want: true,
		},
		{
			name: "short content",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{Content: "too short"},
			},
			want: true,
		},
		{
			name: "challenge signature in short content",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{
					Content: "Checking your browser before accessing this site. Please enable JavaScript and cookies to continue.",
				},
			},
			want: true,
		},
		{
			name: "valid posting content",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{Content: longPosting()},
			},
			want: false,
		},
		{
			name: "challenge word in long real content is ok",
			resp: &jina.ReadResponse{
				Code: 200,
				Data: jina.ReadData{Content: makeLongContent("This posting mentions cloudflare in the stack section.")},
			},
			want: false,
		},
		{
			name: "code 0 is acceptable",
			resp: &jina.ReadResponse{
				Code: 0,
				Data: jina.ReadData{Content: longPosting()},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsFallback(tt.resp))
		})
	}
}

// makeLongContent creates a string > 1000 chars that includes the given prefix.
func makeLongContent(prefix string) string {
	content := prefix
	for len(content) < 1100 {
		content += " More role detail to push the page well past the challenge-length cutoff."
	}
	return content
}
